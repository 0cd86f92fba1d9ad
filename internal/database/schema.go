package database

import (
	"context"
	"database/sql"
)

// schema lists the DDL for every table the server needs, in dependency
// order.  All statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role          VARCHAR(16) NOT NULL DEFAULT 'PLAYER',
		is_active     TINYINT(1) NOT NULL DEFAULT 1,
		created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uk_users_email (email)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS cities (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		owner_id         BIGINT UNSIGNED NOT NULL,
		name             VARCHAR(64) NOT NULL,
		x                INT NOT NULL,
		y                INT NOT NULL,
		food             BIGINT NOT NULL DEFAULT 0,
		wood             BIGINT NOT NULL DEFAULT 0,
		stone            BIGINT NOT NULL DEFAULT 0,
		iron             BIGINT NOT NULL DEFAULT 0,
		food_cap         BIGINT NOT NULL DEFAULT 100000,
		wood_cap         BIGINT NOT NULL DEFAULT 100000,
		stone_cap        BIGINT NOT NULL DEFAULT 100000,
		iron_cap         BIGINT NOT NULL DEFAULT 100000,
		food_protected   BIGINT NOT NULL DEFAULT 0,
		wood_protected   BIGINT NOT NULL DEFAULT 0,
		stone_protected  BIGINT NOT NULL DEFAULT 0,
		iron_protected   BIGINT NOT NULL DEFAULT 0,
		food_rate        BIGINT NOT NULL DEFAULT 0,
		wood_rate        BIGINT NOT NULL DEFAULT 0,
		stone_rate       BIGINT NOT NULL DEFAULT 0,
		iron_rate        BIGINT NOT NULL DEFAULT 0,
		march_speed_pct  INT NOT NULL DEFAULT 0,
		return_speed_pct INT NOT NULL DEFAULT 0,
		last_tick_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_cities_owner (owner_id),
		KEY idx_cities_pos (x, y)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS troop_types (
		id      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		code    VARCHAR(32) NOT NULL,
		name    VARCHAR(64) NOT NULL,
		tier    INT NOT NULL DEFAULT 1,
		attack  BIGINT NOT NULL,
		defense BIGINT NOT NULL,
		hp      BIGINT NOT NULL,
		speed   BIGINT NOT NULL,
		carry   BIGINT NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uk_troop_types_code (code)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS city_troops (
		city_id       BIGINT UNSIGNED NOT NULL,
		troop_type_id BIGINT UNSIGNED NOT NULL,
		count         BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (city_id, troop_type_id),
		CONSTRAINT fk_city_troops_city FOREIGN KEY (city_id) REFERENCES cities (id),
		CONSTRAINT fk_city_troops_type FOREIGN KEY (troop_type_id) REFERENCES troop_types (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS raids (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		attacker_city_id BIGINT UNSIGNED NOT NULL,
		target_city_id   BIGINT UNSIGNED NOT NULL,
		carry_capacity   BIGINT NOT NULL DEFAULT 0,
		stolen_food      BIGINT NOT NULL DEFAULT 0,
		stolen_wood      BIGINT NOT NULL DEFAULT 0,
		stolen_stone     BIGINT NOT NULL DEFAULT 0,
		stolen_iron      BIGINT NOT NULL DEFAULT 0,
		status           ENUM('enroute','returning','resolved') NOT NULL DEFAULT 'enroute',
		outbound_seconds BIGINT NOT NULL,
		return_seconds   BIGINT NOT NULL,
		created_at       DATETIME NOT NULL,
		arrives_at       DATETIME NOT NULL,
		returns_at       DATETIME NOT NULL,
		resolved_at      DATETIME NULL,
		PRIMARY KEY (id),
		KEY idx_raids_attacker (attacker_city_id, status),
		KEY idx_raids_due_arrivals (status, arrives_at),
		KEY idx_raids_due_returns (status, returns_at)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS raid_troops (
		raid_id       BIGINT UNSIGNED NOT NULL,
		troop_type_id BIGINT UNSIGNED NOT NULL,
		count_sent    BIGINT NOT NULL,
		count_lost    BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (raid_id, troop_type_id),
		CONSTRAINT fk_raid_troops_raid FOREIGN KEY (raid_id) REFERENCES raids (id),
		CONSTRAINT fk_raid_troops_type FOREIGN KEY (troop_type_id) REFERENCES troop_types (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS raid_defender_troops (
		raid_id       BIGINT UNSIGNED NOT NULL,
		troop_type_id BIGINT UNSIGNED NOT NULL,
		count_start   BIGINT NOT NULL,
		count_lost    BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (raid_id, troop_type_id),
		CONSTRAINT fk_raid_def_troops_raid FOREIGN KEY (raid_id) REFERENCES raids (id),
		CONSTRAINT fk_raid_def_troops_type FOREIGN KEY (troop_type_id) REFERENCES troop_types (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS mail_messages (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id      BIGINT UNSIGNED NOT NULL,
		kind         VARCHAR(32) NOT NULL,
		subject      VARCHAR(255) NOT NULL,
		body         TEXT NOT NULL,
		payload_json JSON NULL,
		is_read      TINYINT(1) NOT NULL DEFAULT 0,
		created_at   DATETIME NOT NULL,
		read_at      DATETIME NULL,
		PRIMARY KEY (id),
		KEY idx_mail_user (user_id, is_read)
	) ENGINE=InnoDB`,
}

// troopCatalogue seeds the default unit roster on first start.  INSERT
// IGNORE keeps existing rows untouched.
const troopCatalogue = `INSERT IGNORE INTO troop_types (code, name, tier, attack, defense, hp, speed, carry) VALUES
	('warrior',  'Warrior',   1, 20,  20,  100, 100, 25),
	('archer',   'Archer',    1, 35,  15,  80,  100, 20),
	('pikeman',  'Pikeman',   1, 25,  35,  120, 80,  30),
	('cavalry',  'Cavalry',   2, 50,  30,  150, 200, 60),
	('transporter', 'Transporter', 1, 5, 10, 60, 90, 200),
	('catapult', 'Catapult',  3, 120, 20,  200, 50,  40)`

// EnsureSchema creates all tables and seeds the troop catalogue.  Safe to
// run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, troopCatalogue)
	return err
}
