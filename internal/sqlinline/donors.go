package sqlinline

const QInsertDonor = `--sql dbe58880-e40e-481f-b765-750680eee916
insert into donors (
    id, name, type, email, bsn_encrypted, rsin, identity_verified,
    verification_method, verified_at, anbi_consent, anbi_consent_at,
    created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::text, $3::text,
    case when $4::text = '' then null else pgp_sym_encrypt($4::text, $5::text) end,
    $6::text, $7::boolean, $8::text, $9::timestamptz, $10::boolean, $11::timestamptz,
    now(), now()
)
returning id;
`

const QSelectDonorByID = `--sql b40acad6-e0b2-4302-aa47-a10db07a41b8
select
    id, name, type, email,
    case when bsn_encrypted is null then '' else pgp_sym_decrypt(bsn_encrypted, $2::text) end,
    rsin, identity_verified, verification_method, verified_at,
    anbi_consent, anbi_consent_at, created_at, updated_at
from donors
where id = $1::uuid
limit 1;
`

const QSelectDonorByEmail = `--sql 7ced7bb1-ccbe-4f45-b5ca-3474e238200c
select
    id, name, type, email,
    case when bsn_encrypted is null then '' else pgp_sym_decrypt(bsn_encrypted, $2::text) end,
    rsin, identity_verified, verification_method, verified_at,
    anbi_consent, anbi_consent_at, created_at, updated_at
from donors
where lower(email) = lower($1::text)
limit 1;
`

const QUpdateDonor = `--sql 7be1e626-fc47-4d03-b9b3-8daa7bb81ed1
update donors set
    name = $2::text,
    type = $3::text,
    email = $4::text,
    identity_verified = $5::boolean,
    verification_method = $6::text,
    verified_at = $7::timestamptz,
    anbi_consent = $8::boolean,
    anbi_consent_at = $9::timestamptz,
    updated_at = now()
where id = $1::uuid;
`

const QSetDonorTaxID = `--sql 4ca4cf36-4d23-4d50-8ff5-51cff5cce402
update donors set
    bsn_encrypted = case when $2::text = '' then null else pgp_sym_encrypt($2::text, $4::text) end,
    rsin = $3::text,
    updated_at = now()
where id = $1::uuid;
`

const QListDonors = `--sql 3f084b2b-7300-4ee2-993d-accf280e0aa6
select
    id, name, type, email,
    case when bsn_encrypted is null then '' else pgp_sym_decrypt(bsn_encrypted, $3::text) end,
    rsin, identity_verified, verification_method, verified_at,
    anbi_consent, anbi_consent_at, created_at, updated_at
from donors
order by name
limit $1::int offset $2::int;
`

const QListDonorsMissingConsent = `--sql 6949badc-d6de-4362-816c-1ea0f0e65f92
select
    d.id, d.name, d.type, d.email,
    case when d.bsn_encrypted is null then '' else pgp_sym_decrypt(d.bsn_encrypted, $2::text) end,
    d.rsin, d.identity_verified, d.verification_method, d.verified_at,
    d.anbi_consent, d.anbi_consent_at, d.created_at, d.updated_at
from donors d
where not d.anbi_consent
  and exists (select 1 from donations g where g.donor = d.id and g.paid)
order by d.name
limit $1::int;
`

const QDonorConsentCoverage = `--sql 9fefc90c-adf9-49c0-a265-18040c68767f
select count(*) filter (where anbi_consent), count(*)
from donors;
`
