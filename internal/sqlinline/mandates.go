package sqlinline

const QInsertMandate = `--sql 1d56c6c0-fb62-4831-9c77-a5a1b707279b
insert into mandates (
    id, reference, member, iban, bic, account_holder, sign_date, expiry_date,
    status, usage_count, last_used_at, cancel_reason, created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::uuid, $3::text, $4::text, $5::text, $6::date, $7::date,
    $8::text, $9::int, $10::timestamptz, $11::text, now(), now()
)
returning id;
`

const QSelectMandateByID = `--sql dc67a782-8fe6-406c-ab9c-5fc16d3838cb
select
    id, reference, member, iban, bic, account_holder, sign_date, expiry_date,
    status, usage_count, last_used_at, cancel_reason, created_at, updated_at
from mandates
where id = $1::uuid
limit 1;
`

const QSelectMandateByReference = `--sql 19334053-766e-4195-b592-5e7f0e1b5e50
select
    id, reference, member, iban, bic, account_holder, sign_date, expiry_date,
    status, usage_count, last_used_at, cancel_reason, created_at, updated_at
from mandates
where reference = $1::text
limit 1;
`

const QSelectActiveMandateByMember = `--sql 367e3715-7923-4c71-a4e2-ac149040809f
select
    id, reference, member, iban, bic, account_holder, sign_date, expiry_date,
    status, usage_count, last_used_at, cancel_reason, created_at, updated_at
from mandates
where member = $1::uuid and status = 'Active'
order by sign_date desc
limit 1;
`

const QListMandatesByMember = `--sql fae7cf02-2b17-4bae-b562-e81b621445dc
select
    id, reference, member, iban, bic, account_holder, sign_date, expiry_date,
    status, usage_count, last_used_at, cancel_reason, created_at, updated_at
from mandates
where member = $1::uuid
order by sign_date desc;
`

const QUpdateMandate = `--sql b231d3ba-9ae2-463e-9622-74020c939167
update mandates set
    iban = $2::text,
    bic = $3::text,
    account_holder = $4::text,
    expiry_date = $5::date,
    status = $6::text,
    usage_count = $7::int,
    last_used_at = $8::timestamptz,
    cancel_reason = $9::text,
    updated_at = now()
where id = $1::uuid;
`

const QInsertMandateUsage = `--sql 5cf0c48d-235f-4bd1-9bc7-0dc8d1f1097f
insert into mandate_usages (id, mandate, invoice, batch, amount, sequence_type, created_at)
values (gen_random_uuid(), $1::uuid, nullif($2::text, '')::uuid, nullif($3::text, '')::uuid,
        $4::numeric, $5::text, now())
returning id;
`

const QCountMandatesForMemberDay = `--sql 4cee5c4b-2f2e-496b-bf2b-a640b56e0ae6
select count(*)
from mandates
where member = $1::uuid and sign_date = $2::date;
`

const QListActiveMandates = `--sql 8e5aba01-d781-43c5-ac39-424019003fc1
select
    id, reference, member, iban, bic, account_holder, sign_date, expiry_date,
    status, usage_count, last_used_at, cancel_reason, created_at, updated_at
from mandates
where status = 'Active'
order by created_at
limit $1::int offset $2::int;
`
