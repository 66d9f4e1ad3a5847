package sqlstore

type dialect struct {
	driver      string
	schema      []string
	enableCoin  string
	insertPair  string
	upsertRatio string
}

var sqliteDialect = dialect{
	driver: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS coins (
			symbol TEXT PRIMARY KEY,
			enabled INTEGER NOT NULL DEFAULT 1
		);`,
		`CREATE TABLE IF NOT EXISTS pairs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			from_coin TEXT NOT NULL REFERENCES coins(symbol),
			to_coin TEXT NOT NULL REFERENCES coins(symbol),
			ratio REAL,
			UNIQUE (from_coin, to_coin)
		);`,
		`CREATE TABLE IF NOT EXISTS current_coin_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			coin TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
	},
	enableCoin:  "INSERT INTO coins (symbol, enabled) VALUES (?, 1) ON CONFLICT(symbol) DO UPDATE SET enabled = 1",
	insertPair:  "INSERT OR IGNORE INTO pairs (from_coin, to_coin) VALUES (?, ?)",
	upsertRatio: "INSERT INTO pairs (from_coin, to_coin, ratio) VALUES (?, ?, ?) ON CONFLICT(from_coin, to_coin) DO UPDATE SET ratio = excluded.ratio",
}

var mysqlDialect = dialect{
	driver: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS coins (
			symbol VARCHAR(32) NOT NULL PRIMARY KEY,
			enabled BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS pairs (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			from_coin VARCHAR(32) NOT NULL,
			to_coin VARCHAR(32) NOT NULL,
			ratio DOUBLE NULL,
			UNIQUE KEY pairs_from_to (from_coin, to_coin),
			FOREIGN KEY (from_coin) REFERENCES coins(symbol),
			FOREIGN KEY (to_coin) REFERENCES coins(symbol)
		)`,
		`CREATE TABLE IF NOT EXISTS current_coin_history (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			coin VARCHAR(32) NOT NULL,
			created_at BIGINT NOT NULL
		)`,
	},
	enableCoin:  "INSERT INTO coins (symbol, enabled) VALUES (?, TRUE) ON DUPLICATE KEY UPDATE enabled = TRUE",
	insertPair:  "INSERT IGNORE INTO pairs (from_coin, to_coin) VALUES (?, ?)",
	upsertRatio: "INSERT INTO pairs (from_coin, to_coin, ratio) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE ratio = VALUES(ratio)",
}
