package sqlinline

const QInsertBatch = `--sql 5f3938fd-5fdd-435b-b6f7-a24c00b1f28f
insert into batches (
    id, name, batch_date, description, sequence_type, currency, status,
    total_amount, entry_count, xml_key, submitted_at, created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::date, $3::text, $4::text, $5::text, $6::text,
    $7::numeric, $8::int, $9::text, $10::timestamptz, now(), now()
)
returning id;
`

const QSelectBatchByID = `--sql 1e22427e-fc49-433d-a974-e1be9748b93d
select
    id, name, batch_date, description, sequence_type, currency, status,
    total_amount, entry_count, xml_key, submitted_at, created_at, updated_at
from batches
where id = $1::uuid
limit 1;
`

const QUpdateBatch = `--sql 7abc8997-2654-43b4-b4ae-969a3fe18ba4
update batches set
    description = $2::text,
    sequence_type = $3::text,
    status = $4::text,
    total_amount = $5::numeric,
    entry_count = $6::int,
    xml_key = $7::text,
    submitted_at = $8::timestamptz,
    updated_at = now()
where id = $1::uuid;
`

const QUpdateBatchStatus = `--sql 00ce088b-6a48-4bb7-8033-a7367c47b592
update batches set status = $2::text, updated_at = now()
where id = $1::uuid;
`

const QListBatches = `--sql 680b8527-0389-4acb-ad02-57bce7ba594d
select
    id, name, batch_date, description, sequence_type, currency, status,
    total_amount, entry_count, xml_key, submitted_at, created_at, updated_at
from batches
where ($1::text = '' or status = $1::text)
order by batch_date desc, created_at desc
limit $2::int;
`

const QInsertBatchRow = `--sql 68055c99-e716-402c-8a01-9acbc6ae5373
insert into batch_rows (
    id, batch, invoice, invoice_number, member, member_name, amount, currency,
    iban, bic, debtor_name, mandate_reference, mandate_sign_date,
    sequence_type, status, result_code, result_message
)
values (
    gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::uuid, $5::text, $6::numeric, $7::text,
    $8::text, $9::text, $10::text, $11::text, $12::date,
    $13::text, $14::text, $15::text, $16::text
)
returning id;
`

const QListBatchRows = `--sql 7938ff9a-1967-4dc7-b822-444754fda5fc
select
    id, batch, invoice, invoice_number, member, member_name, amount, currency,
    iban, bic, debtor_name, mandate_reference, mandate_sign_date,
    sequence_type, status, result_code, result_message
from batch_rows
where batch = $1::uuid
order by invoice_number;
`

const QUpdateBatchRow = `--sql 8d4e722b-b24a-4032-88d2-0f53eebc4721
update batch_rows set
    status = $2::text,
    result_code = $3::text,
    result_message = $4::text
where id = $1::uuid;
`

const QInsertBatchLog = `--sql 6d766b0d-e9f1-4664-89be-2ca1a0d50dd5
insert into batch_log (id, batch, ts, message)
values (gen_random_uuid(), $1::uuid, $2::timestamptz, $3::text);
`

const QListBatchLog = `--sql b7997259-0e54-4012-a1f2-66ad896c1555
select ts, message
from batch_log
where batch = $1::uuid
order by ts;
`

const QSelectInvoicesInOpenBatches = `--sql 0d3f8aae-eccd-4170-b51b-84d054cb89cb
select br.invoice, b.name
from batch_rows br
join batches b on b.id = br.batch
where br.invoice = any($1::uuid[])
  and b.status in ('Draft', 'Validated', 'Generated', 'Submitted');
`

const QCountBatchesForDay = `--sql b0a3016c-9aa9-4014-82c2-2e7d2bc6a280
select count(*)
from batches
where batch_date = $1::date;
`

const QDeleteStaleDraftBatches = `--sql 29d4ab84-25a2-4bf4-af60-a14c86c8ac75
with stale as (
    select id from batches
    where status = 'Draft' and created_at < $1::timestamptz
),
gone_rows as (
    delete from batch_rows where batch in (select id from stale)
),
gone_log as (
    delete from batch_log where batch in (select id from stale)
)
delete from batches where id in (select id from stale);
`
