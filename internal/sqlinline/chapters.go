package sqlinline

const QInsertChapter = `--sql e00fe765-3969-42a4-a33f-679a7d58ec28
insert into chapters (id, name, region, postal_codes, published, head, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, $3::text, $4::boolean, nullif($5::text, '')::uuid, now(), now())
returning id;
`

const QSelectChapterByID = `--sql f581a616-06bb-41c0-91e5-a4b313a6f8b2
select id, name, region, postal_codes, published, coalesce(head::text, ''), created_at, updated_at
from chapters
where id = $1::uuid
limit 1;
`

const QSelectChapterByName = `--sql ec8721a7-f27d-4fe5-985a-3177f908636b
select id, name, region, postal_codes, published, coalesce(head::text, ''), created_at, updated_at
from chapters
where lower(name) = lower($1::text)
limit 1;
`

const QUpdateChapter = `--sql 2d90c593-c521-4382-8aef-461e6418462f
update chapters set
    name = $2::text,
    region = $3::text,
    postal_codes = $4::text,
    published = $5::boolean,
    head = nullif($6::text, '')::uuid,
    updated_at = now()
where id = $1::uuid;
`

const QListChapters = `--sql bf59f80a-b13e-48b0-86a7-4d73d6f48bee
select id, name, region, postal_codes, published, coalesce(head::text, ''), created_at, updated_at
from chapters
where (not $1::boolean or published)
order by name;
`

const QInsertBoardMember = `--sql 6fa77a9b-b326-4bea-9c3a-f5900fcaeead
insert into board_members (id, chapter, volunteer, member, role, from_date, to_date, active, created_at)
values (gen_random_uuid(), $1::uuid, nullif($2::text, '')::uuid, $3::uuid, $4::text, $5::date, $6::date, $7::boolean, now())
returning id;
`

const QEndBoardMember = `--sql fb3eeb29-ba08-40de-8461-f047ecad7e4a
update board_members set to_date = $2::date, active = false
where id = $1::uuid;
`

const QListBoardByChapter = `--sql 41eda327-cea8-4f55-9fcf-0131d1165bbc
select id, chapter, coalesce(volunteer::text, ''), member, role, from_date, to_date, active, created_at
from board_members
where chapter = $1::uuid and (not $2::boolean or active)
order by from_date desc;
`

const QListBoardByMember = `--sql 7845a3b3-210b-486b-9e69-f248940ed8c7
select id, chapter, coalesce(volunteer::text, ''), member, role, from_date, to_date, active, created_at
from board_members
where member = $1::uuid and (not $2::boolean or active)
order by from_date desc;
`

const QInsertChapterMember = `--sql 049ba7a6-2f38-4df4-a921-786f341094d4
insert into chapter_members (id, chapter, member, enabled, introduction, leave_reason, joined_at)
values (gen_random_uuid(), $1::uuid, $2::uuid, $3::boolean, $4::text, $5::text, now())
on conflict (chapter, member) do update set
    enabled = excluded.enabled,
    introduction = excluded.introduction,
    leave_reason = excluded.leave_reason
returning id;
`

const QListChapterMembers = `--sql ac318afc-03e2-4dbf-a148-9614fe6b20a9
select id, chapter, member, enabled, introduction, leave_reason, joined_at
from chapter_members
where chapter = $1::uuid and enabled
order by joined_at
limit $2::int;
`

const QSelectChapterRole = `--sql 3c295d03-2cba-4484-ac33-4a40d276c75e
select id, name, chair, is_unique
from chapter_roles
where lower(name) = lower($1::text)
limit 1;
`

const QListChapterRoles = `--sql 6f9b1ad2-ece0-404f-b3dd-2e0b27f4b7f4
select id, name, chair, is_unique
from chapter_roles
order by name;
`
