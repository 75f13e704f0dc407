package sqlinline

const QInsertInvoice = `--sql 5d334d95-0ad9-4792-869c-f84fa50e1056
insert into invoices (
    id, number, member, member_name, dues_schedule, description, amount,
    outstanding, currency, coverage_start, coverage_end, posting_date,
    due_date, payment_method, status, created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::uuid, $3::text, nullif($4::text, '')::uuid, $5::text, $6::numeric,
    $7::numeric, $8::text, $9::date, $10::date, $11::date,
    $12::date, $13::text, $14::text, now(), now()
)
returning id;
`

const QSelectInvoiceByID = `--sql e8593511-72b6-45fc-ad07-f94437804bdc
select
    id, number, member, member_name, coalesce(dues_schedule::text, ''), description, amount,
    outstanding, currency, coverage_start, coverage_end, posting_date,
    due_date, payment_method, status, paid_at, cancel_reason, created_at, updated_at
from invoices
where id = $1::uuid
limit 1;
`

const QSelectInvoiceByNumber = `--sql a81a62c9-aeb2-41f8-96e8-72bc1ff84afb
select
    id, number, member, member_name, coalesce(dues_schedule::text, ''), description, amount,
    outstanding, currency, coverage_start, coverage_end, posting_date,
    due_date, payment_method, status, paid_at, cancel_reason, created_at, updated_at
from invoices
where number = $1::text
limit 1;
`

const QUpdateInvoice = `--sql 12f4b988-658e-4fb6-a248-63c8a551f308
update invoices set
    member_name = $2::text,
    description = $3::text,
    amount = $4::numeric,
    outstanding = $5::numeric,
    due_date = $6::date,
    payment_method = $7::text,
    status = $8::text,
    paid_at = $9::timestamptz,
    cancel_reason = $10::text,
    updated_at = now()
where id = $1::uuid;
`

const QListInvoicesByMember = `--sql bfa743c1-cd85-4255-9095-ce163c6f1b8c
select
    id, number, member, member_name, coalesce(dues_schedule::text, ''), description, amount,
    outstanding, currency, coverage_start, coverage_end, posting_date,
    due_date, payment_method, status, paid_at, cancel_reason, created_at, updated_at
from invoices
where member = $1::uuid
order by posting_date desc
limit $2::int;
`

const QListInvoicesByStatus = `--sql f7243033-54be-4458-95de-e374e05c1f6b
select
    id, number, member, member_name, coalesce(dues_schedule::text, ''), description, amount,
    outstanding, currency, coverage_start, coverage_end, posting_date,
    due_date, payment_method, status, paid_at, cancel_reason, created_at, updated_at
from invoices
where status = $1::text
order by due_date
limit $2::int;
`

const QListInvoicesOpenForCollection = `--sql 30c2b9c4-e207-4fa0-81c8-dd5165da601a
select
    i.id, i.number, i.member, i.member_name, coalesce(i.dues_schedule::text, ''), i.description, i.amount,
    i.outstanding, i.currency, i.coverage_start, i.coverage_end, i.posting_date,
    i.due_date, i.payment_method, i.status, i.paid_at, i.cancel_reason, i.created_at, i.updated_at
from invoices i
where i.status in ('Unpaid', 'Overdue')
  and i.payment_method = 'SEPA Direct Debit'
  and i.outstanding > 0
order by i.due_date
limit $1::int;
`

const QCountOpenInvoicesByMember = `--sql ab3ed210-0a5a-4af5-97e9-3f033a910a36
select count(*)
from invoices
where member = $1::uuid and status in ('Unpaid', 'Overdue');
`

const QListInvoicesCoverage = `--sql e70ff89e-f148-442e-9cc0-c656124668bc
select
    id, number, member, member_name, coalesce(dues_schedule::text, ''), description, amount,
    outstanding, currency, coverage_start, coverage_end, posting_date,
    due_date, payment_method, status, paid_at, cancel_reason, created_at, updated_at
from invoices
where dues_schedule = $1::uuid
  and coverage_end >= $2::date
  and coverage_start <= $3::date
  and status <> 'Cancelled'
order by coverage_start;
`

const QMarkInvoicesOverdue = `--sql 2c6798ec-2be7-4428-8402-f42031f56501
update invoices set status = 'Overdue', updated_at = now()
where status = 'Unpaid' and due_date < $1::date;
`

const QNextCounterValue = `--sql 2bbb3323-701d-4170-9f51-c0afcc6a5ef7
insert into counters (scope, last_value)
values ($1::text, 1)
on conflict (scope) do update set last_value = counters.last_value + 1
returning last_value;
`
