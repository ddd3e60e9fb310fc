package sqlinline

const QSelectIntegrationToken = `--sql 0ba9f64a-9005-40a0-a732-6436bed0dd1c
select token
from integration_tokens
where provider = $1;
`

const QUpsertIntegrationToken = `--sql 3e2e941f-4d3b-4109-8d3b-73bb44cb04b6
insert into integration_tokens (provider, token, properties, updated_at)
values ($1, $2, $3::jsonb, now())
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
