package database

import "database/sql"

// Migrate creates the schema when it does not exist yet. Statements
// are idempotent so the service can run them unconditionally at
// startup. The unique indexes on invitations.code, invitations.seat_id
// and guardian_relationships (guardian_email, global_student_id) are
// load-bearing: code-collision retries and guardian deduplication rely
// on them, not on application-level checks alone.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lessons (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			resort_id BIGINT UNSIGNED NOT NULL,
			title VARCHAR(255) NOT NULL DEFAULT '',
			starts_at DATETIME NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			KEY idx_lessons_resort (resort_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS seats (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			lesson_id BIGINT UNSIGNED NOT NULL,
			seat_number INT UNSIGNED NOT NULL,
			status ENUM('pending','invited','claimed') NOT NULL DEFAULT 'pending',
			claimed_mapping_id CHAR(36) NULL,
			claimed_at DATETIME NULL,
			version BIGINT UNSIGNED NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_seats_lesson_number (lesson_id, seat_number),
			CONSTRAINT fk_seats_lesson FOREIGN KEY (lesson_id) REFERENCES lessons (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS invitations (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			seat_id BIGINT UNSIGNED NOT NULL,
			code VARCHAR(16) NOT NULL,
			expires_at DATETIME NOT NULL,
			claimed_at DATETIME NULL,
			claimed_by CHAR(36) NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_invitations_code (code),
			UNIQUE KEY uq_invitations_seat (seat_id),
			CONSTRAINT fk_invitations_seat FOREIGN KEY (seat_id) REFERENCES seats (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS identity_forms (
			seat_id BIGINT UNSIGNED NOT NULL,
			status ENUM('draft','submitted','confirmed') NOT NULL DEFAULT 'draft',
			student_name VARCHAR(255) NOT NULL DEFAULT '',
			contact_email VARCHAR(255) NOT NULL DEFAULT '',
			contact_phone VARCHAR(64) NOT NULL DEFAULT '',
			birth_date DATE NULL,
			is_minor BOOLEAN NOT NULL DEFAULT FALSE,
			has_insurance BOOLEAN NOT NULL DEFAULT FALSE,
			wants_insurance BOOLEAN NOT NULL DEFAULT FALSE,
			note TEXT,
			guardian_email VARCHAR(255) NOT NULL DEFAULT '',
			guardian_relation VARCHAR(64) NOT NULL DEFAULT '',
			submitted_at DATETIME NULL,
			confirmed_at DATETIME NULL,
			PRIMARY KEY (seat_id),
			CONSTRAINT fk_identity_forms_seat FOREIGN KEY (seat_id) REFERENCES seats (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS global_students (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			phone VARCHAR(64) NOT NULL DEFAULT '',
			birth_date DATE NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			KEY idx_global_students_email (email),
			KEY idx_global_students_phone (phone)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS student_mappings (
			id CHAR(36) NOT NULL,
			global_student_id BIGINT UNSIGNED NOT NULL,
			resort_id BIGINT UNSIGNED NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			KEY idx_student_mappings_student (global_student_id),
			CONSTRAINT fk_student_mappings_student FOREIGN KEY (global_student_id) REFERENCES global_students (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

		`CREATE TABLE IF NOT EXISTS guardian_relationships (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			guardian_email VARCHAR(255) NOT NULL,
			global_student_id BIGINT UNSIGNED NOT NULL,
			relationship VARCHAR(64) NOT NULL DEFAULT 'guardian',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uq_guardian_student (guardian_email, global_student_id),
			CONSTRAINT fk_guardian_student FOREIGN KEY (global_student_id) REFERENCES global_students (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
