package sqlinline

const QStatsMemberCounts = `--sql 0f0557a2-1731-4fc6-8cbe-8540b1d2b6df
select status, count(*)
from members
group by status;
`

const QStatsRevenueByMonth = `--sql 8c1b6b9e-0a3f-4f6e-9d2a-7b1e4c5d8f30
select to_char(month, 'YYYY-MM') as month, sum(cnt)::int, sum(total)
from (
    select date_trunc('month', paid_at) as month, count(*) as cnt, sum(amount) as total
    from invoices
    where status = 'Paid' and paid_at is not null and extract(year from paid_at) = $1::int
    group by 1
    union all
    select date_trunc('month', paid_at) as month, count(*) as cnt, sum(amount) as total
    from donations
    where paid and paid_at is not null and extract(year from paid_at) = $1::int
    group by 1
) revenue
group by month
order by month;
`

const QStatsChapterSizes = `--sql 3d2e9f40-6b1c-48a5-b7e0-2f8a9c4d1e67
select c.name, count(cm.member)::int
from chapters c
left join chapter_members cm on cm.chapter = c.id and cm.enabled
group by c.name
order by c.name;
`

const QStatsOverdueInvoices = `--sql 5e7a1c83-9d24-4b6f-a1e8-0c3f6b2d9e45
select count(*)::int, coalesce(sum(outstanding), 0)
from invoices
where status = 'Overdue';
`
