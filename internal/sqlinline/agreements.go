package sqlinline

const QInsertAgreement = `--sql 0adc1500-4d98-4563-9600-3265fdae6634
insert into periodic_agreements (
    id, number, donor, donor_name, annual_amount, payment_frequency,
    payment_amount, payment_method, sepa_mandate, agreement_type,
    agreement_date, start_date, end_date, duration_years, status,
    total_donated, donations_count, created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::uuid, $3::text, $4::numeric, $5::text,
    $6::numeric, $7::text, nullif($8::text, '')::uuid, $9::text,
    $10::date, $11::date, $12::date, $13::int, $14::text,
    $15::numeric, $16::int, now(), now()
)
returning id;
`

const QSelectAgreementByID = `--sql b30928e2-1b19-4b69-9398-c9090681e9a8
select
    id, number, donor, donor_name, annual_amount, payment_frequency,
    payment_amount, payment_method, coalesce(sepa_mandate::text, ''), agreement_type,
    agreement_date, start_date, end_date, duration_years, status,
    total_donated, donations_count, cancel_reason, created_at, updated_at
from periodic_agreements
where id = $1::uuid
limit 1;
`

const QSelectAgreementByNumber = `--sql 0c7ac777-5a37-48f8-802c-a06149d3a2bc
select
    id, number, donor, donor_name, annual_amount, payment_frequency,
    payment_amount, payment_method, coalesce(sepa_mandate::text, ''), agreement_type,
    agreement_date, start_date, end_date, duration_years, status,
    total_donated, donations_count, cancel_reason, created_at, updated_at
from periodic_agreements
where number = $1::text
limit 1;
`

const QUpdateAgreement = `--sql 1c0da535-932a-4dc3-87f6-862e8e9a3a0b
update periodic_agreements set
    donor_name = $2::text,
    annual_amount = $3::numeric,
    payment_frequency = $4::text,
    payment_amount = $5::numeric,
    payment_method = $6::text,
    sepa_mandate = nullif($7::text, '')::uuid,
    status = $8::text,
    total_donated = $9::numeric,
    donations_count = $10::int,
    cancel_reason = $11::text,
    updated_at = now()
where id = $1::uuid;
`

const QListAgreementsByDonor = `--sql b4b7c4bb-f0ea-4890-8c99-00905f94215a
select
    id, number, donor, donor_name, annual_amount, payment_frequency,
    payment_amount, payment_method, coalesce(sepa_mandate::text, ''), agreement_type,
    agreement_date, start_date, end_date, duration_years, status,
    total_donated, donations_count, cancel_reason, created_at, updated_at
from periodic_agreements
where donor = $1::uuid
order by start_date desc;
`

const QListExpiringAgreements = `--sql 3becdb7a-070c-4754-bf01-b2476b44a706
select
    id, number, donor, donor_name, annual_amount, payment_frequency,
    payment_amount, payment_method, coalesce(sepa_mandate::text, ''), agreement_type,
    agreement_date, start_date, end_date, duration_years, status,
    total_donated, donations_count, cancel_reason, created_at, updated_at
from periodic_agreements
where status = 'Active' and end_date >= $1::date and end_date <= $2::date
order by end_date;
`

const QListActiveAgreements = `--sql 199e35b1-5ea2-4f5f-836f-68757f99ab2d
select
    id, number, donor, donor_name, annual_amount, payment_frequency,
    payment_amount, payment_method, coalesce(sepa_mandate::text, ''), agreement_type,
    agreement_date, start_date, end_date, duration_years, status,
    total_donated, donations_count, cancel_reason, created_at, updated_at
from periodic_agreements
where status = 'Active'
order by start_date desc
limit $1::int offset $2::int;
`

const QAgreementStats = `--sql c80b5420-c560-4eb1-b57e-e6985f041837
select status, agreement_type, payment_frequency, count(*), coalesce(sum(annual_amount), 0)
from periodic_agreements
group by status, agreement_type, payment_frequency;
`
