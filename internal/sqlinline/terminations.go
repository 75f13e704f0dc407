package sqlinline

const QInsertTermination = `--sql f120ccf4-22ea-4b6d-be21-f1b4cba3db3b
insert into termination_requests (
    id, member, member_name, type, reason, request_date, requested_by, status,
    secondary_approver, approved_at, disciplinary_docs, effective_date,
    executed_at, cascade_json, audit_json, created_at, updated_at
)
values (
    gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, $5::date, $6::text, $7::text,
    $8::text, $9::timestamptz, $10::text, $11::date,
    $12::timestamptz, coalesce($13::jsonb, '{}'::jsonb), coalesce($14::jsonb, '[]'::jsonb), now(), now()
)
returning id;
`

const QSelectTerminationByID = `--sql 66d7b028-d360-4e85-a4ea-25bf324b7c7c
select
    id, member, member_name, type, reason, request_date, requested_by, status,
    secondary_approver, approved_at, disciplinary_docs, effective_date,
    executed_at, cascade_json, audit_json, created_at, updated_at
from termination_requests
where id = $1::uuid
limit 1;
`

const QUpdateTermination = `--sql fd2dafae-e2c1-4638-a4a6-d5f6df376584
update termination_requests set
    member_name = $2::text,
    type = $3::text,
    reason = $4::text,
    status = $5::text,
    secondary_approver = $6::text,
    approved_at = $7::timestamptz,
    disciplinary_docs = $8::text,
    effective_date = $9::date,
    executed_at = $10::timestamptz,
    cascade_json = coalesce($11::jsonb, '{}'::jsonb),
    audit_json = coalesce($12::jsonb, '[]'::jsonb),
    updated_at = now()
where id = $1::uuid;
`

const QListTerminationsByMember = `--sql 9fdeda68-44cb-4e35-8e3c-2ec8840ab34b
select
    id, member, member_name, type, reason, request_date, requested_by, status,
    secondary_approver, approved_at, disciplinary_docs, effective_date,
    executed_at, cascade_json, audit_json, created_at, updated_at
from termination_requests
where member = $1::uuid
order by created_at desc;
`

const QListTerminationsByStatus = `--sql 47833ef5-3a86-4ec5-97b1-ee802db21eec
select
    id, member, member_name, type, reason, request_date, requested_by, status,
    secondary_approver, approved_at, disciplinary_docs, effective_date,
    executed_at, cascade_json, audit_json, created_at, updated_at
from termination_requests
where status = $1::text
order by created_at
limit $2::int;
`

const QListTerminationsDue = `--sql cc99113d-1791-494e-bf21-e30b499e90f9
select
    id, member, member_name, type, reason, request_date, requested_by, status,
    secondary_approver, approved_at, disciplinary_docs, effective_date,
    executed_at, cascade_json, audit_json, created_at, updated_at
from termination_requests
where status = 'Approved' and effective_date <= $1::date
order by effective_date
limit $2::int;
`

const QListTerminationsBetween = `--sql 18adf854-274f-4113-bbdc-bf11a9a5c3f9
select
    id, member, member_name, type, reason, request_date, requested_by, status,
    secondary_approver, approved_at, disciplinary_docs, effective_date,
    executed_at, cascade_json, audit_json, created_at, updated_at
from termination_requests
where request_date >= $1::date and request_date <= $2::date
order by request_date, created_at;
`
