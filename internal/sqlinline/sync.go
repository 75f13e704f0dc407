package sqlinline

const QUpsertSyncRecord = `--sql 0e6a1f4b-5b6f-4290-8f23-b2f78e2b8e0d
insert into sync_records (
    id, doc_type, doc_id, mutation_id, status, attempts, last_error, synced_at, created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::uuid, $3::bigint, $4::text, $5::int, $6::text, $7::timestamptz, now(), now()
)
on conflict (doc_type, doc_id) do update set
    mutation_id = excluded.mutation_id,
    status = excluded.status,
    attempts = excluded.attempts,
    last_error = excluded.last_error,
    synced_at = excluded.synced_at,
    updated_at = now()
returning id;
`

const QSelectSyncRecord = `--sql c2bc3f2e-9d4d-4f3b-a6a2-0e19a51f6ee2
select
    id, doc_type, doc_id, mutation_id, status, attempts, last_error,
    synced_at, created_at, updated_at
from sync_records
where doc_type = $1::text and doc_id = $2::uuid
limit 1;
`

const QEnqueueMissingInvoices = `--sql ab7b8f1e-98d1-46c6-9ded-0f12f7e5e1d4
insert into sync_records (id, doc_type, doc_id, status, created_at, updated_at)
select gen_random_uuid(), 'invoice', i.id, 'pending', now(), now()
from invoices i
where not exists (
    select 1 from sync_records s where s.doc_type = 'invoice' and s.doc_id = i.id
)
order by i.created_at
limit $1::int
on conflict (doc_type, doc_id) do nothing;
`

const QEnqueueMissingPayments = `--sql 76a6a20c-57a8-4a0e-9cf2-4f77b2c9bd67
insert into sync_records (id, doc_type, doc_id, status, created_at, updated_at)
select gen_random_uuid(), 'payment', i.id, 'pending', now(), now()
from invoices i
where i.status = 'Paid' and i.paid_at is not null and not exists (
    select 1 from sync_records s where s.doc_type = 'payment' and s.doc_id = i.id
)
order by i.paid_at
limit $1::int
on conflict (doc_type, doc_id) do nothing;
`

const QEnqueueMissingDonations = `--sql 5d9f6c32-2ff5-488e-a3ad-5f9c2e6a9a16
insert into sync_records (id, doc_type, doc_id, status, created_at, updated_at)
select gen_random_uuid(), 'donation', d.id, 'pending', now(), now()
from donations d
where d.paid and not exists (
    select 1 from sync_records s where s.doc_type = 'donation' and s.doc_id = d.id
)
order by d.date
limit $1::int
on conflict (doc_type, doc_id) do nothing;
`

const QListPendingSyncRecords = `--sql 4b2e0dc3-f9d4-40a2-b2a5-3a7e93ff5a20
select
    id, doc_type, doc_id, mutation_id, status, attempts, last_error,
    synced_at, created_at, updated_at
from sync_records
where status = 'pending'
order by created_at
limit $1::int;
`

const QExistsSyncMutation = `--sql 74f2a1b0-9a62-4ce1-a64f-8f0f50d4b6d8
select exists (
    select 1 from sync_records where mutation_id = $1::bigint
);
`

const QSelectSyncCursor = `--sql e9ff3a54-09d4-4d0f-bc36-b5b1e4bb20cb
select value from sync_cursors where name = $1::text limit 1;
`

const QUpsertSyncCursor = `--sql 1f4f2e8a-73b8-4f2f-9d8a-6a54cc8d8f01
insert into sync_cursors (name, value, updated_at)
values ($1::text, $2::bigint, now())
on conflict (name) do update set value = excluded.value, updated_at = now();
`
