package storage

// schema is applied statement by statement; the MySQL driver rejects
// multi-statement Exec unless the DSN enables it.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL,
		email VARCHAR(100) NOT NULL DEFAULT '',
		role ENUM('admin', 'user') NOT NULL DEFAULT 'user',
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_username (username)
	)`,
	`CREATE TABLE IF NOT EXISTS warehouses (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		location VARCHAR(200) NOT NULL,
		capacity INT NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		CONSTRAINT chk_warehouses_capacity CHECK (capacity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		description VARCHAR(500) NULL,
		price DECIMAL(12, 2) NOT NULL DEFAULT 0,
		packaging_unit VARCHAR(50) NULL DEFAULT 'Unidad',
		units_per_package INT NOT NULL DEFAULT 1,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
		CONSTRAINT chk_products_price CHECK (price >= 0),
		CONSTRAINT chk_products_units CHECK (units_per_package > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS user_warehouses (
		user_id BIGINT NOT NULL,
		warehouse_id BIGINT NOT NULL,
		PRIMARY KEY (user_id, warehouse_id),
		CONSTRAINT fk_uw_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_uw_warehouse FOREIGN KEY (warehouse_id) REFERENCES warehouses (id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_counts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(200) NOT NULL,
		cut_off_date DATE NOT NULL,
		warehouse_id BIGINT NOT NULL,
		status ENUM('in_progress', 'completed', 'closed') NOT NULL DEFAULT 'in_progress',
		created_by BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		closed_at DATETIME(6) NULL,
		KEY idx_counts_warehouse_status (warehouse_id, status),
		CONSTRAINT fk_counts_warehouse FOREIGN KEY (warehouse_id) REFERENCES warehouses (id),
		CONSTRAINT fk_counts_creator FOREIGN KEY (created_by) REFERENCES users (id)
	)`,
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		count_id BIGINT NOT NULL,
		warehouse_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		packages_count INT NOT NULL,
		quantity BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_items_count (count_id, id),
		CONSTRAINT fk_items_count FOREIGN KEY (count_id) REFERENCES inventory_counts (id),
		CONSTRAINT fk_items_warehouse FOREIGN KEY (warehouse_id) REFERENCES warehouses (id),
		CONSTRAINT fk_items_product FOREIGN KEY (product_id) REFERENCES products (id),
		CONSTRAINT chk_items_packages CHECK (packages_count > 0)
	)`,
}
