package sqlinline

const QInsertNotification = `--sql 5a1f0b53-7a0e-4d22-94e5-7e6f6dbd30c8
insert into notifications (
    id, kind, member, ref_type, ref_id, recipient, subject, body, status, attempts,
    last_error, dedupe_key, scheduled_at, created_at
)
values (
    gen_random_uuid(), $1::text, nullif($2, '')::uuid, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, 0,
    '', nullif($9::text, ''), $10::timestamptz, now()
)
on conflict (dedupe_key) where dedupe_key is not null and dedupe_key <> '' do nothing
returning id;
`

const QClaimPendingNotifications = `--sql 0f62a5a9-4d6e-4e93-b1f7-8f2f6f6d1c58
with claimed as (
    update notifications
    set scheduled_at = now() + interval '10 minutes'
    where id in (
        select id
        from notifications
        where status = 'Pending' and scheduled_at <= now()
        order by scheduled_at asc
        for update skip locked
        limit $1::int
    )
    returning id
)
select
    n.id, n.kind, coalesce(n.member::text, ''), n.ref_type, n.ref_id, n.recipient, n.subject, n.body,
    n.status, n.attempts, n.last_error, coalesce(n.dedupe_key, ''),
    n.scheduled_at, n.sent_at, n.created_at
from notifications n
join claimed c on c.id = n.id;
`

const QMarkNotificationSent = `--sql 9e0d4f3a-6d23-4b18-8b5a-0a2b84cf2f91
update notifications set
    status = 'Sent',
    sent_at = $2::timestamptz,
    attempts = attempts + 1,
    last_error = ''
where id = $1::uuid;
`

const QMarkNotificationFailed = `--sql 03b5d4c8-8a48-4ff1-b6ff-730b8a0a62ab
update notifications set
    status = case when attempts + 1 >= 5 then 'Failed' else 'Pending' end,
    attempts = attempts + 1,
    last_error = $2::text,
    scheduled_at = now() + interval '15 minutes'
where id = $1::uuid;
`

const QExistsNotificationDedupe = `--sql 2c8cf4b9-02a7-4f4f-b7cd-53c1b14aa3ac
select exists (
    select 1 from notifications where dedupe_key = $1::text
);
`

const QDeleteSentNotifications = `--sql 1bd36cd2-b996-4bbb-842f-99a3a5f82262
delete from notifications
where status = 'Sent' and sent_at < $1::timestamptz;
`
