package sqlinline

const QCountUsageSince = `--sql 3c1f0e2a-7b5d-4f8e-9a61-d2c4b8e07f13
select count(*)
from api_usage
where user_id = $1::uuid
  and created_at >= $2::timestamptz;
`

const QInsertUsageEvent = `--sql e40f651c-a8b3-44c7-a911-bb8a0ed5f6ef
insert into api_usage(id, user_id, created_at, properties)
values ($1::uuid, $2::uuid, $3::timestamptz, coalesce($4::jsonb, '{}'::jsonb));
`

const QListUsageSince = `--sql 9d2b7c44-61f0-4e0b-8a3e-5f1c2d7a9b08
select id, created_at, properties
from api_usage
where user_id = $1::uuid
  and created_at >= $2::timestamptz
order by created_at desc;
`
