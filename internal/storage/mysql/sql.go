package mysql

const insertRunSQL = `
INSERT INTO report_runs
  (id, locales, translate, fetched_at, review_count, average_score)
VALUES
  (?, ?, ?, ?, ?, ?)
`

// Note: `text` is reserved; keep it quoted everywhere.
const insertRunReviewsPrefix = "INSERT INTO run_reviews\n  (run_id, reviewed_at, country, author, score, app_version, `text`, translated_text, developer_reply)\nVALUES "

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listRunsSQL = `
SELECT
  id,
  locales,
  translate,
  fetched_at,
  review_count,
  average_score,
  created_at
FROM report_runs
ORDER BY created_at DESC, fetched_at DESC
LIMIT ?
`

const listRunReviewsSQL = "SELECT reviewed_at, country, author, score, app_version, `text`, translated_text, developer_reply\n" +
	"FROM run_reviews WHERE run_id = ? ORDER BY id"

const runExistsSQL = `SELECT 1 FROM report_runs WHERE id = ? LIMIT 1`
