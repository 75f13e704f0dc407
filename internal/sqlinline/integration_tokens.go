package sqlinline

const QSelectIntegrationToken = `--sql 4a0868a0-2c0f-4252-b545-a33f28401321
select token
from integration_tokens
where provider = $1::text;
`

const QUpsertIntegrationToken = `--sql c39a89a4-68a0-4e47-8cd9-1e591ee9501c
insert into integration_tokens (provider, token, created_at, updated_at)
values ($1::text, $2::text, now(), now())
on conflict (provider) do update set
    token = excluded.token,
    updated_at = now();
`
