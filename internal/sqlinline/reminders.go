package sqlinline

// QScheduleReminder keeps at most one pending daily reminder per user.
const QScheduleReminder = `--sql d109c2cd-cb38-4899-987d-4016f1908d4e
insert into reminders (id, user_id, kind, due_at, payload)
values ($1::uuid, $2::uuid, $3, $4, $5::jsonb)
on conflict (user_id) where kind = 'daily' and sent_at is null do update set
    due_at = excluded.due_at,
    payload = excluded.payload;
`

const QClaimDueReminders = `--sql d0cb16e0-8af3-4517-a1d0-cbe7206a0e11
with due as (
    select id
    from reminders
    where sent_at is null and due_at <= $1
    order by due_at asc
    for update skip locked
    limit $2
)
update reminders r
set sent_at = $1
from due
where r.id = due.id
returning r.id::text, r.user_id::text, r.kind, r.due_at, r.payload;
`

const QMarkReminderSent = `--sql 58bd64fe-1250-44d6-8fe4-e58228de5459
update reminders
set sent_at = $2
where id = $1::uuid;
`

const QDeleteRemindersForUser = `--sql 649aa581-3a41-4c57-a50b-4bcbb4192223
delete from reminders
where user_id = $1::uuid;
`
