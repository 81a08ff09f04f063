package sqlinline

// QDebitCredits atomically charges a user and returns the remaining balance.
// No row comes back when the balance would go negative.
const QDebitCredits = `--sql e53e2eb1-978c-42c4-9f7b-7185cb4ecbaa
update users
   set credits = credits - $2::numeric
 where id = $1::uuid
   and credits >= $2::numeric
returning credits;
`

// QGrantCredits tops up a user's balance.
const QGrantCredits = `--sql 0f756705-a907-4f80-b685-63d857387c35
update users
   set credits = credits + $2::numeric
 where id = $1::uuid
returning credits;
`

// QRecordCreation stores the completed generation's metadata for the feed.
const QRecordCreation = `--sql 6f2337e2-92ad-4c46-9656-8e861ea13a5a
insert into creations(id, user_id, method, credit_cost, width, height, color_hex, duration_ms, poll_count, created_at)
values (gen_random_uuid(), $1::uuid, $2::text, $3::numeric, $4::int, $5::int, $6::text, $7::int, $8::int, now());
`
