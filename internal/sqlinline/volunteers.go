package sqlinline

const QInsertVolunteer = `--sql 9754af10-eaca-48f0-b320-382e2c019ccf
insert into volunteers (id, member, name, email, status, start_date, end_date, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::text, $5::date, $6::date, now(), now())
returning id;
`

const QSelectVolunteerByID = `--sql ea832320-d329-4800-8fcb-a5e351f6b84b
select id, member, name, email, status, start_date, end_date, created_at, updated_at
from volunteers
where id = $1::uuid
limit 1;
`

const QSelectVolunteerByMember = `--sql 414219f9-eb8d-4001-9cf1-4f329e1f608f
select id, member, name, email, status, start_date, end_date, created_at, updated_at
from volunteers
where member = $1::uuid
limit 1;
`

const QUpdateVolunteer = `--sql b96b1cb1-077f-4497-be4a-98b02e1ad5e7
update volunteers set
    name = $2::text,
    email = $3::text,
    status = $4::text,
    start_date = $5::date,
    end_date = $6::date,
    updated_at = now()
where id = $1::uuid;
`

const QListVolunteers = `--sql 1dd5d4fd-ed67-4ae0-bf9e-660f6e1ea717
select id, member, name, email, status, start_date, end_date, created_at, updated_at
from volunteers
where ($1::text = '' or status = $1::text)
order by name
limit $2::int;
`

const QListVolunteerAssignments = `--sql f35e13a9-cb44-4966-95c5-b93dcce2de10
select source, reference, role, start_date, end_date, active
from (
    select 'Board' as source, bm.chapter::text as reference, bm.role,
           bm.from_date as start_date, bm.to_date as end_date, bm.active
    from board_members bm
    join volunteers v on v.id = bm.volunteer
    where v.id = $1::uuid
    union all
    select 'Team' as source, tm.team::text as reference, tm.role,
           tm.from_date as start_date, tm.to_date as end_date, tm.active
    from team_members tm
    where tm.volunteer = $1::uuid
    union all
    select 'Activity' as source, va.id::text as reference, va.role,
           va.start_date, va.end_date, (va.status = 'Active') as active
    from volunteer_activities va
    where va.volunteer = $1::uuid
) assignments
where (not $2::boolean or active)
order by start_date desc;
`

const QInsertTeam = `--sql f327a31c-41c9-4dea-b115-945017f3e8f2
insert into teams (id, name, chapter, status, created_at, updated_at)
values (gen_random_uuid(), $1::text, nullif($2::text, '')::uuid, $3::text, now(), now())
returning id;
`

const QSelectTeamByID = `--sql 46c28d88-3d7d-4cc6-a459-4fe31717d27c
select id, name, coalesce(chapter::text, ''), status, created_at, updated_at
from teams
where id = $1::uuid
limit 1;
`

const QUpdateTeam = `--sql 1eab46ef-418a-4867-9966-b44a9e8951bc
update teams set
    name = $2::text,
    chapter = nullif($3::text, '')::uuid,
    status = $4::text,
    updated_at = now()
where id = $1::uuid;
`

const QListTeams = `--sql 75634964-895b-4352-8877-f7a9aa92b6ab
select id, name, coalesce(chapter::text, ''), status, created_at, updated_at
from teams
where (not $1::boolean or status = 'Active')
order by name;
`

const QInsertTeamMember = `--sql d79190f5-7bf4-4e57-83e1-b4234dfdf089
insert into team_members (id, team, volunteer, role, from_date, to_date, active, created_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::text, $4::date, $5::date, $6::boolean, now())
returning id;
`

const QEndTeamMember = `--sql 36661c0e-431d-4043-ba87-9783b4814857
update team_members set to_date = $2::date, active = false
where id = $1::uuid;
`

const QListTeamMembers = `--sql 203215de-12a9-43c0-971f-5ff7d2ded16b
select id, team, volunteer, role, from_date, to_date, active, created_at
from team_members
where team = $1::uuid and (not $2::boolean or active)
order by from_date;
`

const QListTeamsByMember = `--sql 3a737888-87ae-43ab-b079-6933110ced0a
select tm.id, tm.team, tm.volunteer, tm.role, tm.from_date, tm.to_date, tm.active, tm.created_at
from team_members tm
join volunteers v on v.id = tm.volunteer
where v.member = $1::uuid and (not $2::boolean or tm.active)
order by tm.from_date desc;
`

const QInsertVolunteerActivity = `--sql 7c61863b-e258-422c-b42a-c3f14d83bc09
insert into volunteer_activities (id, volunteer, role, description, start_date, end_date, status, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::text, $4::date, $5::date, $6::text, now())
returning id;
`

const QListVolunteerActivities = `--sql dbfab508-8f50-45e4-b2be-bd34c5524f13
select id, volunteer, role, description, start_date, end_date, status, created_at
from volunteer_activities
where volunteer = $1::uuid
order by start_date desc;
`

const QEndVolunteerActivity = `--sql c9a49b6b-b7a2-4716-81cc-8ead20061578
update volunteer_activities set end_date = $2::date, status = 'Ended'
where id = $1::uuid and status = 'Active';
`
