package sqlinline

const QSelectSettings = `--sql 8e34d9ba-97d7-407f-b81d-9305bb4f4ba2
select
    id, organization_name, last_member_number, company_iban, company_bic,
    company_account_holder, creditor_id, batch_creation_days, collection_lead_days,
    batch_auto_submit, invoice_due_days, enable_chapters, enable_portal,
    anbi_rsin, anbi_published_name, updated_at
from settings
order by updated_at desc
limit 1;
`

const QInsertSettings = `--sql 67f2c1d3-4b6a-4a41-9b9f-e4c8f1b2b317
insert into settings (
    id, organization_name, last_member_number, company_iban, company_bic,
    company_account_holder, creditor_id, batch_creation_days, collection_lead_days,
    batch_auto_submit, invoice_due_days, enable_chapters, enable_portal,
    anbi_rsin, anbi_published_name, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::int, $3::text, $4::text,
    $5::text, $6::text, $7::int[], $8::int,
    $9::boolean, $10::int, $11::boolean, $12::boolean,
    $13::text, $14::text, now()
)
returning id;
`

const QUpdateSettings = `--sql 41be0a7a-3ca1-4d0d-a4b9-bb3f8f2c6ba0
update settings set
    organization_name = $2::text,
    company_iban = $3::text,
    company_bic = $4::text,
    company_account_holder = $5::text,
    creditor_id = $6::text,
    batch_creation_days = $7::int[],
    collection_lead_days = $8::int,
    batch_auto_submit = $9::boolean,
    invoice_due_days = $10::int,
    enable_chapters = $11::boolean,
    enable_portal = $12::boolean,
    anbi_rsin = $13::text,
    anbi_published_name = $14::text,
    updated_at = now()
where id = $1::uuid;
`

const QBumpMemberNumber = `--sql 28e5bf23-6ff7-4037-8a61-c7f64b7084ce
update settings set
    last_member_number = greatest(last_member_number + 1, $1::int),
    updated_at = now()
returning last_member_number;
`
