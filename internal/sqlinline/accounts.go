package sqlinline

const QInsertAccount = `--sql b2fe5860-42a2-468f-b221-a0180e1feb4e
insert into accounts (id, email, password_hash)
values ($1::uuid, lower($2), nullif($3, ''))
returning created_at, updated_at;
`

const QSelectAccountByID = `--sql f6db6285-f77d-42ae-998b-f10b7532a878
select id::text, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(facebook_id, ''), created_at, updated_at
from accounts
where id = $1::uuid;
`

const QSelectAccountByEmail = `--sql a9f40703-b170-42c6-8b5c-f742958ef771
select id::text, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(facebook_id, ''), created_at, updated_at
from accounts
where email = lower($1);
`

const QUpsertGoogleAccount = `--sql 40f864e6-fcef-4911-b8f2-22acba8c479c
insert into accounts (id, email, google_sub)
values ($1::uuid, lower($2), $3)
on conflict (email) do update set
    google_sub = excluded.google_sub,
    updated_at = now()
returning id::text, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(facebook_id, ''), created_at, updated_at;
`

const QUpsertFacebookAccount = `--sql bfac4fad-114e-430d-9260-5e09b6ce0eb9
insert into accounts (id, email, facebook_id)
values ($1::uuid, lower($2), $3)
on conflict (email) do update set
    facebook_id = excluded.facebook_id,
    updated_at = now()
returning id::text, email, coalesce(password_hash, ''), coalesce(google_sub, ''), coalesce(facebook_id, ''), created_at, updated_at;
`

const QUpdateAccountPassword = `--sql 8ae07070-ea59-41c7-abde-a3a3019e451f
update accounts
set password_hash = $2, updated_at = now()
where id = $1::uuid;
`

const QDeleteAccount = `--sql bf1ed799-9c8d-4945-b7f1-cc6cb203af32
delete from accounts
where id = $1::uuid;
`

const QInsertPasswordReset = `--sql f764396b-b5cd-4b4e-8f3d-1ccba5c3d130
insert into password_resets (token_hash, account_id, expires_at)
values ($1, $2::uuid, $3);
`

const QConsumePasswordReset = `--sql a63a1a15-f974-4ab8-a9e9-a77ffe6669ca
update password_resets
set used_at = $2
where token_hash = $1
  and used_at is null
  and expires_at > $2
returning account_id::text;
`
