package sqlinline

const QInsertMembership = `--sql 4fdbb186-dae4-4859-be72-7f1c082737bf
insert into memberships (
    id, member, membership_type, start_date, renewal_date, status, auto_renew,
    grace_until, grace_reason, cancellation_date, cancellation_type,
    cancellation_reason, unpaid_amount, created_at, updated_at
)
values (
    gen_random_uuid(), $1::uuid, $2::text, $3::date, $4::date, $5::text, $6::boolean,
    $7::date, $8::text, $9::date, $10::text, $11::text, $12::numeric, now(), now()
)
returning id;
`

const QSelectMembershipByID = `--sql f12518ec-69da-4fe7-917c-ec48a8ab4126
select
    id, member, membership_type, start_date, renewal_date, status, auto_renew,
    grace_until, grace_reason, cancellation_date, cancellation_type,
    cancellation_reason, unpaid_amount, created_at, updated_at
from memberships
where id = $1::uuid
limit 1;
`

const QSelectActiveMembershipByMember = `--sql 7f29b146-a25d-48e2-9d62-6046dd15598c
select
    id, member, membership_type, start_date, renewal_date, status, auto_renew,
    grace_until, grace_reason, cancellation_date, cancellation_type,
    cancellation_reason, unpaid_amount, created_at, updated_at
from memberships
where member = $1::uuid and status = 'Active'
order by start_date desc
limit 1;
`

const QListMembershipsByMember = `--sql 488f5f43-2817-4704-bd19-e20f37acd3e2
select
    id, member, membership_type, start_date, renewal_date, status, auto_renew,
    grace_until, grace_reason, cancellation_date, cancellation_type,
    cancellation_reason, unpaid_amount, created_at, updated_at
from memberships
where member = $1::uuid
order by start_date desc;
`

const QUpdateMembership = `--sql 6d0bc219-94f7-423a-929a-fccb0038f682
update memberships set
    membership_type = $2::text,
    start_date = $3::date,
    renewal_date = $4::date,
    status = $5::text,
    auto_renew = $6::boolean,
    grace_until = $7::date,
    grace_reason = $8::text,
    cancellation_date = $9::date,
    cancellation_type = $10::text,
    cancellation_reason = $11::text,
    unpaid_amount = $12::numeric,
    updated_at = now()
where id = $1::uuid;
`

const QListExpiringMemberships = `--sql 8be33e8b-de15-42fa-874f-472e0b3b5be0
select
    id, member, membership_type, start_date, renewal_date, status, auto_renew,
    grace_until, grace_reason, cancellation_date, cancellation_type,
    cancellation_reason, unpaid_amount, created_at, updated_at
from memberships
where status = 'Active'
  and (renewal_date <= $1::date
       or (cancellation_date is not null and cancellation_date <= $1::date))
order by renewal_date
limit $2::int;
`

const QListMembershipsRenewingBetween = `--sql 269e337e-9f7d-4dba-97bf-3489ed5ab8f2
select
    id, member, membership_type, start_date, renewal_date, status, auto_renew,
    grace_until, grace_reason, cancellation_date, cancellation_type,
    cancellation_reason, unpaid_amount, created_at, updated_at
from memberships
where status = 'Active'
  and cancellation_date is null
  and renewal_date >= $1::date and renewal_date <= $2::date
order by renewal_date
limit $3::int;
`

const QSelectMembershipType = `--sql 6bd6f509-0066-4043-91b7-dda380185365
select id, name, billing_period, custom_period_months, minimum_amount,
       suggested_amount, enforce_minimum_term, active
from membership_types
where name = $1::text
limit 1;
`

const QListMembershipTypes = `--sql af7cae81-2eff-4eab-a778-68b5ae1eebfe
select id, name, billing_period, custom_period_months, minimum_amount,
       suggested_amount, enforce_minimum_term, active
from membership_types
order by name;
`

const QUpsertMembershipType = `--sql a2ad3275-5e40-409a-b1ce-941aeb7b9e99
insert into membership_types (id, name, billing_period, custom_period_months,
    minimum_amount, suggested_amount, enforce_minimum_term, active)
values (gen_random_uuid(), $1::text, $2::text, $3::int, $4::numeric, $5::numeric, $6::boolean, $7::boolean)
on conflict (name) do update set
    billing_period = excluded.billing_period,
    custom_period_months = excluded.custom_period_months,
    minimum_amount = excluded.minimum_amount,
    suggested_amount = excluded.suggested_amount,
    enforce_minimum_term = excluded.enforce_minimum_term,
    active = excluded.active
returning id;
`
