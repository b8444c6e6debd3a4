package database

import (
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/dsteam/cohortboard/core"
)

// schema is the whole of it: one table of archived report runs.
const schema = `
CREATE TABLE IF NOT EXISTS ipp_report (
	id           UUID PRIMARY KEY,
	course_id    TEXT NOT NULL,
	course_name  TEXT NOT NULL,
	start_date   DATE NOT NULL,
	end_date     DATE NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	entries      JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS ipp_report_course_idx ON ipp_report (course_id, generated_at DESC);
`

func Open(conf *core.Config) (*sqlx.DB, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   conf.Database.Engine,
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}

	db, err := sqlx.Open(conf.Database.Engine, u.String())
	if err != nil {
		return nil, errors.Wrap(err, "opening DB")
	}
	if err := ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "ensuring schema")
	}
	return db, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}
