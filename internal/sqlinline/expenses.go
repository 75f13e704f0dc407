package sqlinline

const QInsertExpense = `--sql b3e531d9-86b9-4a1e-9b25-70d9b036a678
insert into expenses (
    id, volunteer, org_type, org_ref, category, description, amount,
    expense_date, status, created_at, updated_at
)
values (
    gen_random_uuid(), $1::uuid, $2::text, nullif($3::text, '')::uuid, $4::text, $5::text, $6::numeric,
    $7::date, $8::text, now(), now()
)
returning id;
`

const QSelectExpenseByID = `--sql 6ee63202-fb07-4543-bf46-60958284357e
select
    id, volunteer, org_type, coalesce(org_ref::text, ''), category, description, amount,
    expense_date, status, approved_by, approved_at, reject_reason, created_at, updated_at
from expenses
where id = $1::uuid
limit 1;
`

const QUpdateExpense = `--sql 109b5a50-6fcd-431f-8689-bdcd784cf5b3
update expenses set
    status = $2::text,
    approved_by = $3::text,
    approved_at = $4::timestamptz,
    reject_reason = $5::text,
    updated_at = now()
where id = $1::uuid;
`

const QListExpensesByVolunteer = `--sql 388c24ba-5a6f-4c3f-b8b8-d7f80fa7dc2e
select
    id, volunteer, org_type, coalesce(org_ref::text, ''), category, description, amount,
    expense_date, status, approved_by, approved_at, reject_reason, created_at, updated_at
from expenses
where volunteer = $1::uuid
order by created_at desc
limit $2::int;
`

const QListExpensesByStatus = `--sql 62a408a6-fc82-4cc4-b556-79a4adadf4dc
select
    id, volunteer, org_type, coalesce(org_ref::text, ''), category, description, amount,
    expense_date, status, approved_by, approved_at, reject_reason, created_at, updated_at
from expenses
where status = $1::text
order by created_at
limit $2::int;
`
