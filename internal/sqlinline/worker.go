package sqlinline

const QInsertJob = `--sql 7f7d5ec9-9b63-47f4-ae34-5d2c9f8b6e44
insert into jobs (
    id, type, status, payload, attempts, max_attempts, run_after, created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, 'queued', coalesce($2::jsonb, '{}'::jsonb), 0, $3::int, $4::timestamptz, now(), now()
)
returning id;
`

const QWorkerClaimJob = `--sql 4f55a9b7-4e9f-4e45-a3b3-5a532d21d9db
with next_job as (
    select id
    from jobs
    where status = 'queued' and run_after <= now()
    order by run_after asc, created_at asc
    for update skip locked
    limit 1
),
updated as (
    update jobs
    set status = 'running', attempts = attempts + 1, updated_at = now()
    where id in (select id from next_job)
    returning id, type, status, payload, coalesce(result, '{}'::jsonb), attempts,
        max_attempts, run_after, error_message, created_at, updated_at
)
select * from updated;
`

const QUpdateJobStatus = `--sql b6a47e1a-50cf-4c63-930f-0c1f49981270
update jobs set
    status = $2::text,
    error_message = coalesce($3::text, ''),
    result = coalesce($4::jsonb, result),
    updated_at = now()
where id = $1::uuid;
`

const QSelectJobByID = `--sql e3f2bb6a-4e43-42e0-9b57-2c6933cf0d2c
select
    id, type, status, payload, coalesce(result, '{}'::jsonb), attempts,
    max_attempts, run_after, error_message, created_at, updated_at
from jobs
where id = $1::uuid
limit 1;
`

const QRequeueJob = `--sql 1da3c4b8-6f7e-42a6-8209-9d4c92e0e5bb
update jobs set
    status = 'queued',
    run_after = $2::timestamptz,
    updated_at = now()
where id = $1::uuid;
`

const QDeleteFinishedJobs = `--sql 85a6452e-3c3f-4ef3-9968-016781606aa2
delete from jobs
where status in ('succeeded', 'failed') and updated_at < $1::timestamptz;
`

const QPing = `--sql 342d724b-bdf5-48e4-9a9a-1d2a96f737c7
select 1;
`
