package sqlinline

const QInsertDonation = `--sql 88096991-886d-4374-95a2-d9af09253f92
insert into donations (
    id, donor, date, amount, payment_method, status, purpose, campaign_ref,
    chapter_ref, goal_description, periodic_agreement, anbi_agreement_number,
    anbi_agreement_date, reportable, sepa_mandate, bank_reference,
    country_code, paid, paid_at, created_at, updated_at
)
values (
    gen_random_uuid(), $1::uuid, $2::date, $3::numeric, $4::text, $5::text, $6::text, $7::text,
    nullif($8::text, '')::uuid, $9::text, nullif($10::text, '')::uuid, $11::text,
    $12::date, $13::boolean, nullif($14::text, '')::uuid, $15::text,
    $16::text, $17::boolean, $18::timestamptz, now(), now()
)
returning id;
`

const QSelectDonationByID = `--sql cca93eb5-a62e-40a5-9b3e-3d34673fa7fb
select
    id, donor, date, amount, payment_method, status, purpose, campaign_ref,
    coalesce(chapter_ref::text, ''), goal_description, coalesce(periodic_agreement::text, ''),
    anbi_agreement_number, anbi_agreement_date, reportable,
    coalesce(sepa_mandate::text, ''), bank_reference, country_code, paid, paid_at,
    created_at, updated_at
from donations
where id = $1::uuid
limit 1;
`

const QUpdateDonation = `--sql 80f06313-79e9-493e-bdb1-84a82ad11fe8
update donations set
    amount = $2::numeric,
    payment_method = $3::text,
    status = $4::text,
    purpose = $5::text,
    campaign_ref = $6::text,
    chapter_ref = nullif($7::text, '')::uuid,
    goal_description = $8::text,
    periodic_agreement = nullif($9::text, '')::uuid,
    anbi_agreement_number = $10::text,
    anbi_agreement_date = $11::date,
    reportable = $12::boolean,
    sepa_mandate = nullif($13::text, '')::uuid,
    bank_reference = $14::text,
    paid = $15::boolean,
    paid_at = $16::timestamptz,
    updated_at = now()
where id = $1::uuid;
`

const QListDonationsByDonor = `--sql 00c3090e-be87-4725-a531-2e93157ab26b
select
    id, donor, date, amount, payment_method, status, purpose, campaign_ref,
    coalesce(chapter_ref::text, ''), goal_description, coalesce(periodic_agreement::text, ''),
    anbi_agreement_number, anbi_agreement_date, reportable,
    coalesce(sepa_mandate::text, ''), bank_reference, country_code, paid, paid_at,
    created_at, updated_at
from donations
where donor = $1::uuid
order by date desc
limit $2::int;
`

const QListDonationsByAgreement = `--sql ded8a523-6a14-4640-876d-d813a5d061bd
select
    id, donor, date, amount, payment_method, status, purpose, campaign_ref,
    coalesce(chapter_ref::text, ''), goal_description, coalesce(periodic_agreement::text, ''),
    anbi_agreement_number, anbi_agreement_date, reportable,
    coalesce(sepa_mandate::text, ''), bank_reference, country_code, paid, paid_at,
    created_at, updated_at
from donations
where periodic_agreement = $1::uuid
order by date;
`

const QListReportableDonations = `--sql f12c9aa3-498d-493d-b501-957c457b64e9
select
    id, donor, date, amount, payment_method, status, purpose, campaign_ref,
    coalesce(chapter_ref::text, ''), goal_description, coalesce(periodic_agreement::text, ''),
    anbi_agreement_number, anbi_agreement_date, reportable,
    coalesce(sepa_mandate::text, ''), bank_reference, country_code, paid, paid_at,
    created_at, updated_at
from donations
where reportable and date >= $1::date and date <= $2::date
order by date;
`

const QListRecentDonations = `--sql d766e75e-84cd-41db-927c-cc94ab13eb0f
select
    id, donor, date, amount, payment_method, status, purpose, campaign_ref,
    coalesce(chapter_ref::text, ''), goal_description, coalesce(periodic_agreement::text, ''),
    anbi_agreement_number, anbi_agreement_date, reportable,
    coalesce(sepa_mandate::text, ''), bank_reference, country_code, paid, paid_at,
    created_at, updated_at
from donations
order by created_at desc
limit $1::int;
`

const QSumDonationsByDonor = `--sql edb8f116-cc6f-4eb7-85c8-a40887e680c2
select count(*), coalesce(sum(amount), 0)
from donations
where donor = $1::uuid and date >= $2::date and date <= $3::date;
`
