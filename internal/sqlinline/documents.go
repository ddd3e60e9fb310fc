package sqlinline

const QDocumentGet = `--sql 93311d14-2200-437c-a8ff-82386da08c21
select data, version, created_at, updated_at
from documents
where collection = $1 and key = $2;
`

const QDocumentSet = `--sql 6d5865a0-2b0b-4783-b778-522ef0974332
insert into documents (collection, key, data)
values ($1, $2, $3::jsonb)
on conflict (collection, key) do update set
    data = excluded.data,
    version = documents.version + 1,
    updated_at = now()
returning data, version, created_at, updated_at;
`

const QDocumentMerge = `--sql a6b6586e-3dcf-456d-a4c8-dffde5df49dd
insert into documents (collection, key, data)
values ($1, $2, $3::jsonb)
on conflict (collection, key) do update set
    data = jsonb_deep_merge(documents.data, excluded.data),
    version = documents.version + 1,
    updated_at = now()
returning data, version, created_at, updated_at;
`

const QDocumentDelete = `--sql 9befe36d-23ad-4e8a-8732-74b8eda20d5b
delete from documents
where collection = $1 and key = $2;
`

const QDocumentRange = `--sql 441a6ce5-6c3f-44c9-bf51-02bbbb19fb80
select key, data, version, created_at, updated_at
from documents
where collection = $1
  and key collate "C" >= $2
  and key collate "C" < $3
order by key collate "C" asc
limit $4;
`

const QDocumentFindEqual = `--sql 88fa4014-b303-4eab-8f0a-6d14dd612d96
select key, data, version, created_at, updated_at
from documents
where collection = $1
  and data @> $2::jsonb
order by key collate "C" asc
limit $3;
`
