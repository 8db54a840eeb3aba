package store

// SQL query constants. All SQL lives here; PostgresStore methods
// reference these constants.

const (
	queryAccountColumns = `
		id, name, provider_username, provider_password,
		serial_number, wifi_pn, dev_code, dev_addr,
		notification_email, grid_feed, active, created_at`

	queryListActiveAccounts = `
		SELECT` + queryAccountColumns + `
		FROM accounts
		WHERE active
		ORDER BY created_at`

	queryGetAccount = `
		SELECT` + queryAccountColumns + `
		FROM accounts
		WHERE id = @id`

	queryCreateAccount = `
		INSERT INTO accounts (
			id, name, provider_username, provider_password,
			serial_number, wifi_pn, dev_code, dev_addr,
			notification_email, grid_feed, active, created_at
		) VALUES (
			@id, @name, @provider_username, @provider_password,
			@serial_number, @wifi_pn, @dev_code, @dev_addr,
			@notification_email, @grid_feed, @active, now()
		)
		RETURNING created_at`

	querySetAccountActive = `
		UPDATE accounts
		SET active = @active
		WHERE id = @id`

	queryUpdateNotificationEmail = `
		UPDATE accounts
		SET notification_email = @email
		WHERE id = @id`

	queryUpdateGridFeed = `
		UPDATE accounts
		SET grid_feed = @grid_feed
		WHERE id = @id`
)
