package sqlinline

const QInsertMember = `--sql 02f13fe7-45fc-4105-8bc3-88024c58737a
insert into members (
    id, member_number, application_id, first_name, last_name, email, birth_date,
    postal_code, city, street, country_code, status, app_status, payment_method,
    iban, bic, account_holder, chapter,
    fee_override_amount, fee_override_reason, fee_override_by, fee_override_at,
    reviewed_by, reviewed_at, created_at, updated_at
)
values (
    gen_random_uuid(), $1::int, nullif($2::text, '')::uuid, $3::text, $4::text, $5::text, $6::date,
    $7::text, $8::text, $9::text, $10::text, $11::text, $12::text, $13::text,
    $14::text, $15::text, $16::text, nullif($17::text, '')::uuid,
    $18::numeric, $19::text, $20::text, $21::timestamptz,
    $22::text, $23::timestamptz, now(), now()
)
returning id;
`

const QSelectMemberByID = `--sql b42c4c29-34c3-4679-a85a-feebb14b24d9
select
    id, member_number, coalesce(application_id::text, ''), first_name, last_name, email, birth_date,
    postal_code, city, street, country_code, status, app_status, payment_method,
    iban, bic, account_holder, coalesce(chapter::text, ''),
    fee_override_amount, fee_override_reason, fee_override_by, fee_override_at,
    reviewed_by, reviewed_at, created_at, updated_at
from members
where id = $1::uuid
limit 1;
`

const QSelectMemberByNumber = `--sql dabaa8ef-7e0a-416e-a9f9-73314052add9
select
    id, member_number, coalesce(application_id::text, ''), first_name, last_name, email, birth_date,
    postal_code, city, street, country_code, status, app_status, payment_method,
    iban, bic, account_holder, coalesce(chapter::text, ''),
    fee_override_amount, fee_override_reason, fee_override_by, fee_override_at,
    reviewed_by, reviewed_at, created_at, updated_at
from members
where member_number = $1::int
limit 1;
`

const QSelectMemberByEmail = `--sql e7168434-351d-468c-880b-3b736ad96df3
select
    id, member_number, coalesce(application_id::text, ''), first_name, last_name, email, birth_date,
    postal_code, city, street, country_code, status, app_status, payment_method,
    iban, bic, account_holder, coalesce(chapter::text, ''),
    fee_override_amount, fee_override_reason, fee_override_by, fee_override_at,
    reviewed_by, reviewed_at, created_at, updated_at
from members
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateMember = `--sql 2cf49d94-6533-495d-9bce-7028a8ba05a5
update members set
    member_number = $2::int,
    first_name = $3::text,
    last_name = $4::text,
    email = $5::text,
    birth_date = $6::date,
    postal_code = $7::text,
    city = $8::text,
    street = $9::text,
    country_code = $10::text,
    status = $11::text,
    app_status = $12::text,
    payment_method = $13::text,
    iban = $14::text,
    bic = $15::text,
    account_holder = $16::text,
    chapter = nullif($17::text, '')::uuid,
    fee_override_amount = $18::numeric,
    fee_override_reason = $19::text,
    fee_override_by = $20::text,
    fee_override_at = $21::timestamptz,
    reviewed_by = $22::text,
    reviewed_at = $23::timestamptz,
    updated_at = now()
where id = $1::uuid;
`

const QUpdateMemberStatus = `--sql 50830a44-1dcd-4706-bc9c-730edefa1495
update members set status = $2::text, updated_at = now()
where id = $1::uuid;
`

const QListMembers = `--sql ff667538-1614-4e52-b7ad-ba48d725205a
select
    id, member_number, coalesce(application_id::text, ''), first_name, last_name, email, birth_date,
    postal_code, city, street, country_code, status, app_status, payment_method,
    iban, bic, account_holder, coalesce(chapter::text, ''),
    fee_override_amount, fee_override_reason, fee_override_by, fee_override_at,
    reviewed_by, reviewed_at, created_at, updated_at
from members
where ($1::text = '' or status = $1::text)
  and ($2::text = '' or chapter = $2::uuid)
  and ($3::text = '' or
       lower(first_name || ' ' || last_name) like '%' || lower($3::text) || '%' or
       lower(email) like '%' || lower($3::text) || '%' or
       member_number::text = $3::text)
order by member_number nulls last, created_at
limit $4::int offset $5::int;
`

const QListMembersByChapter = `--sql 3d2f8017-1609-4cb1-8fa4-fdab2183ecf2
select
    id, member_number, coalesce(application_id::text, ''), first_name, last_name, email, birth_date,
    postal_code, city, street, country_code, status, app_status, payment_method,
    iban, bic, account_holder, coalesce(chapter::text, ''),
    fee_override_amount, fee_override_reason, fee_override_by, fee_override_at,
    reviewed_by, reviewed_at, created_at, updated_at
from members
where chapter = $1::uuid
order by member_number
limit 500;
`

const QCountMembersByStatus = `--sql b212656d-6448-4e6a-957a-6e7dd0997274
select status, count(*)
from members
group by status;
`

const QListDirectDebitWithoutMandate = `--sql dcb766bf-7ee0-43fe-9e4e-3503868b2e11
select
    m.id, m.member_number, coalesce(m.application_id::text, ''), m.first_name, m.last_name, m.email, m.birth_date,
    m.postal_code, m.city, m.street, m.country_code, m.status, m.app_status, m.payment_method,
    m.iban, m.bic, m.account_holder, coalesce(m.chapter::text, ''),
    m.fee_override_amount, m.fee_override_reason, m.fee_override_by, m.fee_override_at,
    m.reviewed_by, m.reviewed_at, m.created_at, m.updated_at
from members m
where m.payment_method = 'SEPA Direct Debit'
  and m.status = 'Active'
  and not exists (
      select 1 from mandates md
      where md.member = m.id and md.status = 'Active'
  )
order by m.member_number
limit $1::int;
`

const QInsertApplication = `--sql 192e0e5f-761a-4ad4-8269-a660ca1fd7d7
insert into applications (
    id, app_number, first_name, last_name, email, birth_date, postal_code, city, street,
    country_code, membership_type, payment_method, iban, bic, account_holder,
    custom_amount, chapter, status, submitted_at
)
values (
    gen_random_uuid(), $1::int, $2::text, $3::text, $4::text, $5::date, $6::text, $7::text, $8::text,
    $9::text, $10::text, $11::text, $12::text, $13::text, $14::text,
    $15::numeric, nullif($16::text, '')::uuid, $17::text, now()
)
returning id, submitted_at;
`

const QSelectApplicationByID = `--sql b8b1d1ea-8c8e-431d-9976-14a3638c1885
select
    id, app_number, first_name, last_name, email, birth_date, postal_code, city, street,
    country_code, membership_type, payment_method, iban, bic, account_holder,
    custom_amount, coalesce(chapter::text, ''), status, reject_reason,
    reviewed_by, reviewed_at, coalesce(member_id::text, ''), submitted_at
from applications
where id = $1::uuid
limit 1;
`

const QUpdateApplication = `--sql a5979034-727f-4a53-aa29-3bad3c1f69e1
update applications set
    status = $2::text,
    reject_reason = $3::text,
    reviewed_by = $4::text,
    reviewed_at = $5::timestamptz,
    member_id = nullif($6::text, '')::uuid,
    chapter = nullif($7::text, '')::uuid
where id = $1::uuid;
`

const QListApplicationsByStatus = `--sql c04e0d85-8572-41de-a60e-05b1b6f2d6bc
select
    id, app_number, first_name, last_name, email, birth_date, postal_code, city, street,
    country_code, membership_type, payment_method, iban, bic, account_holder,
    custom_amount, coalesce(chapter::text, ''), status, reject_reason,
    reviewed_by, reviewed_at, coalesce(member_id::text, ''), submitted_at
from applications
where status = $1::text
order by submitted_at
limit $2::int;
`
