package storage

import (
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type dialect struct {
	name           string
	driverName     string
	connString     func(dsn string) string
	numbered       bool
	lockProjectSQL string
	schema         []string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, "":
		return sqliteDialect, nil
	case DriverPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// rebind rewrites ? placeholders to $1, $2, ... for Postgres.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

var sqliteDialect = dialect{
	name:       DriverSQLite,
	driverName: "sqlite3",
	connString: func(dsn string) string {
		if dsn == ":memory:" {
			return "file::memory:?_foreign_keys=ON"
		}
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dsn)
	},
	lockProjectSQL: `SELECT id FROM projects WHERE id = ?`,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS projects (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            project_key TEXT NOT NULL,
            board_type TEXT NOT NULL DEFAULT 'kanban',
            created_by INTEGER REFERENCES users(id),
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS sprints (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id INTEGER NOT NULL REFERENCES projects(id),
            name TEXT NOT NULL,
            is_closed BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS board_columns (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id INTEGER NOT NULL REFERENCES projects(id),
            title TEXT NOT NULL,
            position INTEGER NOT NULL,
            visible BOOLEAN NOT NULL DEFAULT 1,
            removable BOOLEAN NOT NULL DEFAULT 1,
            UNIQUE(project_id, position)
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            project_id INTEGER NOT NULL REFERENCES projects(id),
            column_id INTEGER NOT NULL REFERENCES board_columns(id),
            title TEXT NOT NULL,
            description TEXT,
            priority TEXT NOT NULL DEFAULT 'Medium',
            task_type TEXT NOT NULL DEFAULT 'SUBTASK',
            created_by INTEGER REFERENCES users(id),
            assigned_to INTEGER REFERENCES users(id),
            story_id INTEGER REFERENCES tasks(id),
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS time_logs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_id INTEGER REFERENCES tasks(id),
            user_id INTEGER NOT NULL REFERENCES users(id),
            minutes TEXT NOT NULL,
            date TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS comments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_id INTEGER NOT NULL REFERENCES tasks(id),
            owner_id INTEGER NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_columns_project ON board_columns(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_story ON tasks(story_id);`,
		`CREATE INDEX IF NOT EXISTS idx_time_logs_task ON time_logs(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_id);`,
	},
}

var postgresDialect = dialect{
	name:           DriverPostgres,
	driverName:     "pgx",
	connString:     func(dsn string) string { return dsn },
	numbered:       true,
	lockProjectSQL: `SELECT id FROM projects WHERE id = ? FOR UPDATE`,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            email TEXT NOT NULL UNIQUE,
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS projects (
            id BIGSERIAL PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            project_key VARCHAR(30) NOT NULL,
            board_type VARCHAR(50) NOT NULL DEFAULT 'kanban',
            created_by BIGINT REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS sprints (
            id BIGSERIAL PRIMARY KEY,
            project_id BIGINT NOT NULL REFERENCES projects(id),
            name VARCHAR(200) NOT NULL,
            is_closed BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS board_columns (
            id BIGSERIAL PRIMARY KEY,
            project_id BIGINT NOT NULL REFERENCES projects(id),
            title VARCHAR(100) NOT NULL,
            position INTEGER NOT NULL,
            visible BOOLEAN NOT NULL DEFAULT TRUE,
            removable BOOLEAN NOT NULL DEFAULT TRUE,
            UNIQUE(project_id, position)
        );`,
		`CREATE TABLE IF NOT EXISTS tasks (
            id BIGSERIAL PRIMARY KEY,
            project_id BIGINT NOT NULL REFERENCES projects(id),
            column_id BIGINT NOT NULL REFERENCES board_columns(id),
            title VARCHAR(255) NOT NULL,
            description TEXT,
            priority VARCHAR(40) NOT NULL DEFAULT 'Medium',
            task_type VARCHAR(50) NOT NULL DEFAULT 'SUBTASK',
            created_by BIGINT REFERENCES users(id),
            assigned_to BIGINT REFERENCES users(id),
            story_id BIGINT REFERENCES tasks(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS time_logs (
            id BIGSERIAL PRIMARY KEY,
            task_id BIGINT REFERENCES tasks(id),
            user_id BIGINT NOT NULL REFERENCES users(id),
            minutes NUMERIC NOT NULL,
            date DATE NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS comments (
            id BIGSERIAL PRIMARY KEY,
            task_id BIGINT NOT NULL REFERENCES tasks(id),
            owner_id BIGINT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS idx_columns_project ON board_columns(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column ON tasks(column_id);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_story ON tasks(story_id);`,
		`CREATE INDEX IF NOT EXISTS idx_time_logs_task ON time_logs(task_id);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_task ON comments(task_id);`,
	},
}
