package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds the full schema as idempotent statements, applied
// in order at startup.  Foreign keys require parents to come first.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        email VARCHAR(255) NOT NULL,
        password_hash VARCHAR(255) NOT NULL,
        role ENUM('ADMIN','OWNER','CUSTOMER') NOT NULL DEFAULT 'CUSTOMER',
        is_active TINYINT(1) NOT NULL DEFAULT 1,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_users_email (email)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id BIGINT UNSIGNED NOT NULL,
        token_hash CHAR(64) NOT NULL,
        expires_at DATETIME NOT NULL,
        revoked_at DATETIME NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_refresh_tokens_hash (token_hash),
        CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS meals (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        owner_id BIGINT UNSIGNED NOT NULL,
        title VARCHAR(150) NOT NULL,
        description TEXT NULL,
        price_cents INT UNSIGNED NOT NULL,
        is_available TINYINT(1) NOT NULL DEFAULT 1,
        available_from TIME NOT NULL DEFAULT '00:00:00',
        available_to TIME NOT NULL DEFAULT '23:59:59',
        diet_type ENUM('keto','low_carb','vegetarian','vegan','paleo','balanced') NULL,
        rate DOUBLE NOT NULL DEFAULT 0,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_meals_owner (owner_id),
        KEY idx_meals_diet (diet_type),
        CONSTRAINT fk_meals_owner FOREIGN KEY (owner_id) REFERENCES users (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ingredients (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name VARCHAR(100) NOT NULL,
        calories DOUBLE NULL,
        sugar DOUBLE NULL,
        fat DOUBLE NULL,
        protein DOUBLE NULL,
        fiber DOUBLE NULL,
        carbohydrates DOUBLE NULL,
        sodium DOUBLE NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_ingredients_name (name)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS allergens (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name VARCHAR(100) NOT NULL,
        PRIMARY KEY (id),
        UNIQUE KEY uq_allergens_name (name)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ingredient_meal (
        meal_id BIGINT UNSIGNED NOT NULL,
        ingredient_id BIGINT UNSIGNED NOT NULL,
        quantity DOUBLE NULL,
        unit ENUM('tbsp','g','piece','l') NULL,
        PRIMARY KEY (meal_id, ingredient_id),
        CONSTRAINT fk_im_meal FOREIGN KEY (meal_id) REFERENCES meals (id),
        CONSTRAINT fk_im_ingredient FOREIGN KEY (ingredient_id) REFERENCES ingredients (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS allergen_meal (
        meal_id BIGINT UNSIGNED NOT NULL,
        allergen_id BIGINT UNSIGNED NOT NULL,
        PRIMARY KEY (meal_id, allergen_id),
        CONSTRAINT fk_am_meal FOREIGN KEY (meal_id) REFERENCES meals (id),
        CONSTRAINT fk_am_allergen FOREIGN KEY (allergen_id) REFERENCES allergens (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS orders (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id BIGINT UNSIGNED NOT NULL,
        total_cents INT UNSIGNED NOT NULL DEFAULT 0,
        status ENUM('pending','confirmed','preparing','delivered','cancelled') NOT NULL DEFAULT 'pending',
        delivery_address VARCHAR(255) NOT NULL,
        delivery_time_slot VARCHAR(50) NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_orders_user (user_id),
        KEY idx_orders_status (status),
        CONSTRAINT fk_orders_user FOREIGN KEY (user_id) REFERENCES users (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS order_items (
        order_id BIGINT UNSIGNED NOT NULL,
        meal_id BIGINT UNSIGNED NOT NULL,
        quantity INT UNSIGNED NOT NULL,
        unit_price_cents INT UNSIGNED NOT NULL,
        PRIMARY KEY (order_id, meal_id),
        CONSTRAINT fk_oi_order FOREIGN KEY (order_id) REFERENCES orders (id),
        CONSTRAINT fk_oi_meal FOREIGN KEY (meal_id) REFERENCES meals (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reviews (
        id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id BIGINT UNSIGNED NOT NULL,
        meal_id BIGINT UNSIGNED NOT NULL,
        rating TINYINT UNSIGNED NOT NULL,
        comment TEXT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_reviews_meal (meal_id),
        CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users (id),
        CONSTRAINT fk_reviews_meal FOREIGN KEY (meal_id) REFERENCES meals (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS wishlists (
        user_id BIGINT UNSIGNED NOT NULL,
        meal_id BIGINT UNSIGNED NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (user_id, meal_id),
        CONSTRAINT fk_wl_user FOREIGN KEY (user_id) REFERENCES users (id),
        CONSTRAINT fk_wl_meal FOREIGN KEY (meal_id) REFERENCES meals (id)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Apply runs every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
