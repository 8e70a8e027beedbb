package database

import (
    "context"
    "database/sql"
)

// schema lists the DDL for every table the platform uses.  Statements
// are idempotent so EnsureSchema can run on every boot.  MySQL syntax;
// the repository tests build an equivalent sqlite schema of their own.
var schema = []string{
    `CREATE TABLE IF NOT EXISTS users (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name VARCHAR(30) NOT NULL,
        email VARCHAR(255) NOT NULL,
        password_hash VARCHAR(255) NOT NULL,
        avatar_url VARCHAR(512) NOT NULL DEFAULT '',
        role VARCHAR(16) NOT NULL DEFAULT 'user',
        is_verified TINYINT(1) NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uq_users_email (email)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS courses (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name VARCHAR(255) NOT NULL,
        description TEXT NOT NULL,
        price INT UNSIGNED NOT NULL,
        estimated_price INT UNSIGNED NOT NULL DEFAULT 0,
        thumbnail_url VARCHAR(512) NOT NULL DEFAULT '',
        tags VARCHAR(255) NOT NULL,
        level VARCHAR(64) NOT NULL,
        demo_url VARCHAR(512) NOT NULL,
        ratings DOUBLE NOT NULL DEFAULT 0,
        purchased BIGINT UNSIGNED NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        PRIMARY KEY (id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS course_sections (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        course_id BIGINT UNSIGNED NOT NULL,
        position INT UNSIGNED NOT NULL,
        title VARCHAR(255) NOT NULL,
        description TEXT NOT NULL,
        video_url VARCHAR(512) NOT NULL DEFAULT '',
        video_length INT UNSIGNED NOT NULL DEFAULT 0,
        suggestion TEXT,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        KEY ix_sections_course (course_id),
        CONSTRAINT fk_sections_course FOREIGN KEY (course_id) REFERENCES courses(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS section_questions (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        section_id BIGINT UNSIGNED NOT NULL,
        user_id BIGINT UNSIGNED NOT NULL,
        question TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        KEY ix_questions_section (section_id),
        CONSTRAINT fk_questions_section FOREIGN KEY (section_id) REFERENCES course_sections(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS question_answers (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        question_id BIGINT UNSIGNED NOT NULL,
        user_id BIGINT UNSIGNED NOT NULL,
        answer TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        KEY ix_answers_question (question_id),
        CONSTRAINT fk_answers_question FOREIGN KEY (question_id) REFERENCES section_questions(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS course_reviews (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        course_id BIGINT UNSIGNED NOT NULL,
        user_id BIGINT UNSIGNED NOT NULL,
        rating DOUBLE NOT NULL,
        comment TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        KEY ix_reviews_course (course_id),
        CONSTRAINT fk_reviews_course FOREIGN KEY (course_id) REFERENCES courses(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS review_replies (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        review_id BIGINT UNSIGNED NOT NULL,
        user_id BIGINT UNSIGNED NOT NULL,
        comment TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        KEY ix_replies_review (review_id),
        CONSTRAINT fk_replies_review FOREIGN KEY (review_id) REFERENCES course_reviews(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS user_courses (
        user_id BIGINT UNSIGNED NOT NULL,
        course_id BIGINT UNSIGNED NOT NULL,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (user_id, course_id),
        CONSTRAINT fk_uc_user FOREIGN KEY (user_id) REFERENCES users(id),
        CONSTRAINT fk_uc_course FOREIGN KEY (course_id) REFERENCES courses(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS orders (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id BIGINT UNSIGNED NOT NULL,
        course_id BIGINT UNSIGNED NOT NULL,
        payment_info TEXT,
        created_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        KEY ix_orders_user (user_id),
        CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users(id),
        CONSTRAINT fk_orders_course FOREIGN KEY (course_id) REFERENCES courses(id)
    ) ENGINE=InnoDB`,
    `CREATE TABLE IF NOT EXISTS notifications (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id BIGINT UNSIGNED NOT NULL,
        title VARCHAR(255) NOT NULL,
        message TEXT NOT NULL,
        status VARCHAR(16) NOT NULL DEFAULT 'unread',
        created_at DATETIME NOT NULL,
        PRIMARY KEY (id),
        KEY ix_notifications_status (status, created_at)
    ) ENGINE=InnoDB`,
}

// EnsureSchema creates any missing tables.  It runs at startup so a
// fresh database is usable without a separate migration step.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
    for _, stmt := range schema {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return err
        }
    }
    return nil
}
