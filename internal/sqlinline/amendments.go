package sqlinline

const QInsertAmendment = `--sql 4f6b9e58-ec5f-4216-8701-a6cf54059df2
insert into amendments (
    id, schedule, member, member_name, type, status, current_amount, new_amount,
    current_freq, new_freq, reason, requested_by, self_service, effective_date,
    approved_by, approved_at, applied_at, notes, created_at, updated_at
)
values (
    gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::numeric, $7::numeric,
    $8::text, $9::text, $10::text, $11::text, $12::boolean, $13::date,
    $14::text, $15::timestamptz, $16::timestamptz, $17::text, now(), now()
)
returning id;
`

const QSelectAmendmentByID = `--sql 2d8ed7b3-06f6-45fc-ac7c-cf6de2bde4b1
select
    id, schedule, member, member_name, type, status, current_amount, new_amount,
    current_freq, new_freq, reason, requested_by, self_service, effective_date,
    approved_by, approved_at, applied_at, notes, created_at, updated_at
from amendments
where id = $1::uuid
limit 1;
`

const QUpdateAmendment = `--sql d7f60030-6a58-4840-8f93-2bdfc0de2ed5
update amendments set
    status = $2::text,
    new_amount = $3::numeric,
    new_freq = $4::text,
    reason = $5::text,
    effective_date = $6::date,
    approved_by = $7::text,
    approved_at = $8::timestamptz,
    applied_at = $9::timestamptz,
    notes = $10::text,
    updated_at = now()
where id = $1::uuid;
`

const QSelectOpenAmendmentByMember = `--sql a0b9c2be-4fb4-43f9-8824-b21936779f23
select
    id, schedule, member, member_name, type, status, current_amount, new_amount,
    current_freq, new_freq, reason, requested_by, self_service, effective_date,
    approved_by, approved_at, applied_at, notes, created_at, updated_at
from amendments
where member = $1::uuid and status in ('Draft', 'Pending Approval', 'Approved')
order by created_at desc
limit 1;
`

const QListAmendmentsBySchedule = `--sql 3e9c46f9-2a5e-487f-a4a3-e355d6a55b59
select
    id, schedule, member, member_name, type, status, current_amount, new_amount,
    current_freq, new_freq, reason, requested_by, self_service, effective_date,
    approved_by, approved_at, applied_at, notes, created_at, updated_at
from amendments
where schedule = $1::uuid
order by created_at desc;
`

const QListAmendmentsByStatus = `--sql 84d1f2c7-5b0e-4a38-9c62-7e4f8a1b3d50
select
    id, schedule, member, member_name, type, status, current_amount, new_amount,
    current_freq, new_freq, reason, requested_by, self_service, effective_date,
    approved_by, approved_at, applied_at, notes, created_at, updated_at
from amendments
where status = $1::text
order by created_at
limit $2::int;
`

const QListAmendmentsDueForApply = `--sql 6b1a0a52-66a3-41b7-bb2e-967a6a62a236
select
    id, schedule, member, member_name, type, status, current_amount, new_amount,
    current_freq, new_freq, reason, requested_by, self_service, effective_date,
    approved_by, approved_at, applied_at, notes, created_at, updated_at
from amendments
where status = 'Approved' and effective_date <= $1::date
order by effective_date
limit $2::int;
`
