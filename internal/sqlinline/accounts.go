package sqlinline

const QInsertAccount = `--sql 5a82e2ad-7b09-40c5-9d22-2d28db58c0f0
insert into accounts (
    id, email, name, password_hash, role, member_id, active, created_at, updated_at
)
values (
    gen_random_uuid(), lower($1::text), $2::text, $3::text, $4::text, nullif($5, '')::uuid, $6::boolean, now(), now()
)
returning id;
`

const QSelectAccountByEmail = `--sql 1239018e-4f5f-46a0-8f0d-81b2a3a5f0f8
select
    id, email, name, password_hash, role, coalesce(member_id::text, ''), active,
    last_login_at, created_at, updated_at
from accounts
where email = lower($1::text)
limit 1;
`

const QSelectAccountByID = `--sql 0b3f7d1c-9e52-4f8a-b4d6-7a2c5e8f1b90
select
    id, email, name, password_hash, role, coalesce(member_id::text, ''), active,
    last_login_at, created_at, updated_at
from accounts
where id = $1::uuid
limit 1;
`

const QSelectAccountByMember = `--sql 6c8e2a4f-1d7b-4e93-8f50-3b9d6c0a2e14
select
    id, email, name, password_hash, role, coalesce(member_id::text, ''), active,
    last_login_at, created_at, updated_at
from accounts
where member_id = $1::uuid
limit 1;
`

const QUpdateAccount = `--sql 9f4b6d28-3c1e-4a70-b5f8-0d7e2c9a4b61
update accounts set
    email = lower($2::text),
    name = $3::text,
    password_hash = $4::text,
    role = $5::text,
    member_id = nullif($6, '')::uuid,
    active = $7::boolean,
    updated_at = now()
where id = $1::uuid;
`

const QTouchAccountLogin = `--sql 2e7c9b50-8f13-4d6a-a294-5c0b8e3f7d12
update accounts set
    last_login_at = $2::timestamptz,
    updated_at = now()
where id = $1::uuid;
`
