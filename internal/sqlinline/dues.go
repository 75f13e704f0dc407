package sqlinline

const QInsertDuesSchedule = `--sql 98bd57db-d7e8-405d-9112-efdfac15d79d
insert into dues_schedules (
    id, member, membership, membership_type, billing_frequency, dues_rate,
    next_invoice_date, invoice_lead_days, coverage_start, coverage_end,
    last_invoice_date, consecutive_failures, grace_until, status,
    payment_method, active_mandate, auto_generate, created_at, updated_at
)
values (
    gen_random_uuid(), $1::uuid, nullif($2::text, '')::uuid, $3::text, $4::text, $5::numeric,
    $6::date, $7::int, $8::date, $9::date,
    $10::date, $11::int, $12::date, $13::text,
    $14::text, nullif($15::text, '')::uuid, $16::boolean, now(), now()
)
returning id;
`

const QSelectDuesScheduleByID = `--sql 6c2ef9be-7122-4097-836a-74e96d70633b
select
    id, member, coalesce(membership::text, ''), membership_type, billing_frequency, dues_rate,
    next_invoice_date, invoice_lead_days, coverage_start, coverage_end,
    last_invoice_date, consecutive_failures, grace_until, status,
    payment_method, coalesce(active_mandate::text, ''), auto_generate, created_at, updated_at
from dues_schedules
where id = $1::uuid
limit 1;
`

const QSelectActiveDuesScheduleByMember = `--sql c30f5c73-81ab-4ecc-ac04-2f28d36937e8
select
    id, member, coalesce(membership::text, ''), membership_type, billing_frequency, dues_rate,
    next_invoice_date, invoice_lead_days, coverage_start, coverage_end,
    last_invoice_date, consecutive_failures, grace_until, status,
    payment_method, coalesce(active_mandate::text, ''), auto_generate, created_at, updated_at
from dues_schedules
where member = $1::uuid and status in ('Active', 'Paused', 'Grace')
order by created_at desc
limit 1;
`

const QUpdateDuesSchedule = `--sql 7599fdb3-ee9d-4b8e-9083-5e1a5a430f25
update dues_schedules set
    membership = nullif($2::text, '')::uuid,
    membership_type = $3::text,
    billing_frequency = $4::text,
    dues_rate = $5::numeric,
    next_invoice_date = $6::date,
    invoice_lead_days = $7::int,
    coverage_start = $8::date,
    coverage_end = $9::date,
    last_invoice_date = $10::date,
    consecutive_failures = $11::int,
    grace_until = $12::date,
    status = $13::text,
    payment_method = $14::text,
    active_mandate = nullif($15::text, '')::uuid,
    auto_generate = $16::boolean,
    updated_at = now()
where id = $1::uuid;
`

const QListDueSchedules = `--sql 6941271f-64ea-4976-a86b-e90ffdac0f95
select
    id, member, coalesce(membership::text, ''), membership_type, billing_frequency, dues_rate,
    next_invoice_date, invoice_lead_days, coverage_start, coverage_end,
    last_invoice_date, consecutive_failures, grace_until, status,
    payment_method, coalesce(active_mandate::text, ''), auto_generate, created_at, updated_at
from dues_schedules
where status = 'Active'
  and auto_generate
  and next_invoice_date - invoice_lead_days * interval '1 day' <= $1::date
order by next_invoice_date
limit $2::int;
`

const QListDuesSchedulesByStatus = `--sql 949b5b0a-7426-4ede-8315-8c2494e93a31
select
    id, member, coalesce(membership::text, ''), membership_type, billing_frequency, dues_rate,
    next_invoice_date, invoice_lead_days, coverage_start, coverage_end,
    last_invoice_date, consecutive_failures, grace_until, status,
    payment_method, coalesce(active_mandate::text, ''), auto_generate, created_at, updated_at
from dues_schedules
where status = $1::text
order by next_invoice_date
limit $2::int;
`
