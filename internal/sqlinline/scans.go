package sqlinline

const QInsertScan = `--sql cca5e614-866d-47a3-a371-f70a0197fdf0
insert into scan_history (id, user_id, entry_type, query, image_url, nutrition, demo, scanned_at)
values ($1::uuid, $2::uuid, $3, nullif($4, ''), nullif($5, ''), $6::jsonb, $7, $8);
`

const QListScans = `--sql 082619b5-9677-4476-8fa0-340f2f23f4af
select id::text, entry_type, coalesce(query, ''), coalesce(image_url, ''), nutrition, demo, scanned_at
from scan_history
where user_id = $1::uuid
order by position asc;
`

const QSelectScan = `--sql 0005da0d-e15b-4120-b771-570712ba35c4
select id::text, entry_type, coalesce(query, ''), coalesce(image_url, ''), nutrition, demo, scanned_at
from scan_history
where user_id = $1::uuid and id = $2::uuid;
`

const QDeleteScan = `--sql 3b81b678-fd2b-4acc-b52b-ce5d632aa701
delete from scan_history
where user_id = $1::uuid and id = $2::uuid;
`

const QDeleteScansForUser = `--sql 25d8029d-0d7c-485a-bc1f-674232cdd37d
delete from scan_history
where user_id = $1::uuid;
`
