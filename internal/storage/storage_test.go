package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "uploads/a.jpg", want: "uploads/a.jpg"},
		{in: "/uploads//a.jpg", want: "uploads/a.jpg"},
		{in: "./x\\y.png", want: "x/y.png"},
		{in: "../etc/passwd", wantErr: true},
		{in: "a/../../b", wantErr: true},
		{in: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	url, err := store.Upload(ctx, "images/u1/a.jpg", []byte("jpeg"), "image/jpeg")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if url != "http://localhost:8080/static/images/u1/a.jpg" {
		t.Fatalf("url = %q", url)
	}
	key, ok := store.KeyFromURL(url)
	if !ok || key != "images/u1/a.jpg" {
		t.Fatalf("KeyFromURL = %q, %v", key, ok)
	}
	if _, ok := store.KeyFromURL("https://elsewhere.example.com/a.jpg"); ok {
		t.Fatalf("foreign url should not map to a key")
	}
	data, err := store.Read(ctx, key)
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("second Delete returned error: %v", err)
	}
	if _, err := store.Read(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read after delete err = %v, want ErrNotFound", err)
	}
}

type fakeS3 struct {
	objects map[string][]byte
	put     *s3.PutObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	f.put = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	for _, obj := range in.Delete.Objects {
		delete(f.objects, aws.ToString(obj.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string][]byte{}}
	store := NewS3Store(client, "wellness-media", "")

	url, err := store.Upload(ctx, "/images/u1/a.png", []byte("png"), "image/png")
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if url != "https://wellness-media.s3.amazonaws.com/images/u1/a.png" {
		t.Fatalf("url = %q", url)
	}
	if aws.ToString(client.put.Bucket) != "wellness-media" || aws.ToString(client.put.ContentType) != "image/png" {
		t.Fatalf("unexpected put input %+v", client.put)
	}
	data, err := store.Read(ctx, "images/u1/a.png")
	if err != nil || string(data) != "png" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if err := store.Delete(ctx, "images/u1/a.png"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := store.Read(ctx, "images/u1/a.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read after delete err = %v, want ErrNotFound", err)
	}
}

func TestFileStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	for _, key := range []string{"profiles/u1/a.png", "profiles/u1/b.png", "profiles/u10/c.png"} {
		if _, err := store.Upload(ctx, key, []byte("png"), "image/png"); err != nil {
			t.Fatalf("Upload(%q) returned error: %v", key, err)
		}
	}
	if err := store.DeletePrefix(ctx, "profiles/u1"); err != nil {
		t.Fatalf("DeletePrefix returned error: %v", err)
	}
	if _, err := store.Read(ctx, "profiles/u1/a.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read after DeletePrefix err = %v, want ErrNotFound", err)
	}
	if _, err := store.Read(ctx, "profiles/u10/c.png"); err != nil {
		t.Fatalf("sibling prefix was removed: %v", err)
	}
	if err := store.DeletePrefix(ctx, "profiles/missing"); err != nil {
		t.Fatalf("DeletePrefix on a missing prefix returned error: %v", err)
	}
	if err := store.DeletePrefix(ctx, ".."); err == nil {
		t.Fatalf("DeletePrefix(..) should be rejected")
	}
}

func TestS3StoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	client := &fakeS3{objects: map[string][]byte{
		"scans/u1/a.jpg":  []byte("a"),
		"scans/u1/b.jpg":  []byte("b"),
		"scans/u10/c.jpg": []byte("c"),
	}}
	store := NewS3Store(client, "wellness-media", "")
	if err := store.DeletePrefix(ctx, "scans/u1"); err != nil {
		t.Fatalf("DeletePrefix returned error: %v", err)
	}
	if len(client.objects) != 1 {
		t.Fatalf("objects left = %v, want only scans/u10/c.jpg", client.objects)
	}
	if _, ok := client.objects["scans/u10/c.jpg"]; !ok {
		t.Fatalf("sibling prefix was removed")
	}
}
