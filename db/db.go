package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/deemkeen/trunk/domain"
	"github.com/deemkeen/trunk/util"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// DB is the database struct.
type DB struct {
	db *sql.DB
}

var (
	dbInstance *DB
	dbOnce     sync.Once
	dbFileName = "trunk.db"
)

const (
	//Instances
	sqlCreateInstancesTable = `CREATE TABLE IF NOT EXISTS instances(
                        host varchar(255) NOT NULL PRIMARY KEY,
                        software varchar(100),
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertInstance       = `INSERT OR IGNORE INTO instances(host, software, created_at) VALUES (?, ?, ?)`
	sqlSelectInstanceByHost = `SELECT host, software, created_at FROM instances WHERE host = ?`

	//Accounts
	sqlCreateAccountsTable = `CREATE TABLE IF NOT EXISTS accounts(
                        id uuid NOT NULL PRIMARY KEY,
                        iri varchar(500) UNIQUE NOT NULL,
                        handle varchar(255) NOT NULL,
                        display_name varchar(255),
                        bio text,
                        avatar_url varchar(500),
                        cover_url varchar(500),
                        protected int default 0,
                        instance_host varchar(255) NOT NULL,
                        followers_count int default 0,
                        following_count int default 0,
                        posts_count int default 0,
                        field_htmls text,
                        published timestamp,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertAccount = `INSERT INTO accounts(id, iri, handle, display_name, bio, avatar_url, cover_url, protected,
                        instance_host, followers_count, following_count, posts_count, field_htmls, published, created_at)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectAccountCols    = `id, iri, handle, display_name, bio, avatar_url, cover_url, protected, instance_host, followers_count, following_count, posts_count, field_htmls, published, created_at`
	sqlSelectAccountById    = `SELECT ` + sqlSelectAccountCols + ` FROM accounts WHERE id = ?`
	sqlSelectAccountByIRI   = `SELECT ` + sqlSelectAccountCols + ` FROM accounts WHERE iri = ?`
	sqlDeleteAccount        = `DELETE FROM accounts WHERE id = ?`
	sqlUpdateAccountCounts  = `UPDATE accounts SET followers_count = ?, following_count = ?, posts_count = ? WHERE id = ?`

	//Account owners
	sqlCreateOwnersTable = `CREATE TABLE IF NOT EXISTS account_owners(
                        id uuid NOT NULL PRIMARY KEY,
                        handle varchar(255) NOT NULL,
                        rsa_private_key_pem text,
                        rsa_public_key_pem text,
                        language varchar(10),
                        visibility varchar(20) default 'public',
                        followed_tags text,
                        discoverable int default 0,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertOwner     = `INSERT INTO account_owners(id, handle, rsa_private_key_pem, rsa_public_key_pem, language, visibility, followed_tags, discoverable, created_at)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectOwnerById = `SELECT id, handle, rsa_private_key_pem, rsa_public_key_pem, language, visibility, followed_tags, discoverable, created_at FROM account_owners WHERE id = ?`
	sqlDeleteOwner     = `DELETE FROM account_owners WHERE id = ?`

	//Posts
	sqlCreatePostsTable = `CREATE TABLE IF NOT EXISTS posts(
                        id uuid NOT NULL PRIMARY KEY,
                        iri varchar(500) UNIQUE NOT NULL,
                        type varchar(20) NOT NULL default 'Note',
                        account_id uuid NOT NULL,
                        reply_target_id uuid,
                        visibility varchar(20) default 'public',
                        summary text,
                        content_html text,
                        language varchar(10),
                        url varchar(500),
                        sensitive int default 0,
                        replies_count int default 0,
                        shares_count int default 0,
                        likes_count int default 0,
                        published timestamp,
                        updated timestamp
                        )`
	sqlUpsertPost = `INSERT INTO posts(id, iri, type, account_id, reply_target_id, visibility, summary, content_html,
                        language, url, sensitive, replies_count, shares_count, likes_count, published, updated)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                        ON CONFLICT(iri) DO UPDATE SET
                        content_html = excluded.content_html,
                        account_id = excluded.account_id,
                        updated = excluded.updated`
	sqlSelectPostCols         = `id, iri, type, account_id, reply_target_id, visibility, summary, content_html, language, url, sensitive, replies_count, shares_count, likes_count, published, updated`
	sqlSelectPostById         = `SELECT ` + sqlSelectPostCols + ` FROM posts WHERE id = ?`
	sqlSelectPostByIRI        = `SELECT ` + sqlSelectPostCols + ` FROM posts WHERE iri = ?`
	sqlSelectPostsByAccountId = `SELECT ` + sqlSelectPostCols + ` FROM posts WHERE account_id = ? ORDER BY published ASC`
	sqlCountPostsByAccountId  = `SELECT COUNT(*) FROM posts WHERE account_id = ?`

	//Media attachments
	sqlCreateMediaTable = `CREATE TABLE IF NOT EXISTS media_attachments(
                        id uuid NOT NULL PRIMARY KEY,
                        post_id uuid NOT NULL,
                        type varchar(20) default 'Document',
                        url varchar(500) NOT NULL,
                        content_type varchar(100),
                        description text,
                        width int default 0,
                        height int default 0,
                        created_at timestamp default current_timestamp
                        )`
	sqlInsertMedia         = `INSERT OR IGNORE INTO media_attachments(id, post_id, type, url, content_type, description, width, height, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	sqlSelectMediaByPostId = `SELECT id, post_id, type, url, content_type, description, width, height, created_at FROM media_attachments WHERE post_id = ? ORDER BY created_at ASC`

	//Follows
	sqlCreateFollowsTable = `CREATE TABLE IF NOT EXISTS follows(
                        follower_id uuid NOT NULL,
                        following_id uuid NOT NULL,
                        iri varchar(500),
                        shares int default 1,
                        notify int default 0,
                        languages text,
                        approved timestamp,
                        created_at timestamp default current_timestamp,
                        PRIMARY KEY(follower_id, following_id)
                        )`
	sqlUpsertFollow = `INSERT INTO follows(follower_id, following_id, iri, shares, notify, languages, approved, created_at)
                        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
                        ON CONFLICT(follower_id, following_id) DO UPDATE SET
                        shares = excluded.shares,
                        notify = excluded.notify,
                        languages = excluded.languages,
                        approved = excluded.approved`
	sqlSelectFollowCols        = `follower_id, following_id, iri, shares, notify, languages, approved, created_at`
	sqlSelectFollowersByAccId  = `SELECT ` + sqlSelectFollowCols + ` FROM follows WHERE following_id = ? ORDER BY created_at ASC`
	sqlSelectFollowingByAccId  = `SELECT ` + sqlSelectFollowCols + ` FROM follows WHERE follower_id = ? ORDER BY created_at ASC`
	sqlSelectFollowByPair      = `SELECT ` + sqlSelectFollowCols + ` FROM follows WHERE follower_id = ? AND following_id = ?`
	sqlCountFollowersByAccId   = `SELECT COUNT(*) FROM follows WHERE following_id = ?`
	sqlCountFollowingByAccId   = `SELECT COUNT(*) FROM follows WHERE follower_id = ?`

	//Likes
	sqlCreateLikesTable = `CREATE TABLE IF NOT EXISTS likes(
                        account_id uuid NOT NULL,
                        post_id uuid NOT NULL,
                        created_at timestamp default current_timestamp,
                        PRIMARY KEY(account_id, post_id)
                        )`
	sqlUpsertLike           = `INSERT INTO likes(account_id, post_id, created_at) VALUES (?, ?, ?) ON CONFLICT(account_id, post_id) DO NOTHING`
	sqlSelectLikesByAccId   = `SELECT account_id, post_id, created_at FROM likes WHERE account_id = ? ORDER BY created_at ASC`

	//Bookmarks
	sqlCreateBookmarksTable = `CREATE TABLE IF NOT EXISTS bookmarks(
                        account_owner_id uuid NOT NULL,
                        post_id uuid NOT NULL,
                        created_at timestamp default current_timestamp,
                        PRIMARY KEY(account_owner_id, post_id)
                        )`
	sqlUpsertBookmark          = `INSERT INTO bookmarks(account_owner_id, post_id, created_at) VALUES (?, ?, ?) ON CONFLICT(account_owner_id, post_id) DO NOTHING`
	sqlSelectBookmarksByOwner  = `SELECT account_owner_id, post_id, created_at FROM bookmarks WHERE account_owner_id = ? ORDER BY created_at ASC`

	//Mutes
	sqlCreateMutesTable = `CREATE TABLE IF NOT EXISTS mutes(
                        id uuid NOT NULL PRIMARY KEY,
                        account_id uuid NOT NULL,
                        muted_account_id uuid NOT NULL,
                        notifications int default 1,
                        duration_seconds integer,
                        created_at timestamp default current_timestamp,
                        UNIQUE(account_id, muted_account_id)
                        )`
	sqlUpsertMute = `INSERT INTO mutes(id, account_id, muted_account_id, notifications, duration_seconds, created_at)
                        VALUES (?, ?, ?, ?, ?, ?)
                        ON CONFLICT(account_id, muted_account_id) DO UPDATE SET
                        notifications = excluded.notifications,
                        duration_seconds = excluded.duration_seconds`
	sqlSelectMutesByAccId = `SELECT id, account_id, muted_account_id, notifications, duration_seconds, created_at FROM mutes WHERE account_id = ? ORDER BY created_at ASC`

	//Blocks
	sqlCreateBlocksTable = `CREATE TABLE IF NOT EXISTS blocks(
                        account_id uuid NOT NULL,
                        blocked_account_id uuid NOT NULL,
                        created_at timestamp default current_timestamp,
                        PRIMARY KEY(account_id, blocked_account_id)
                        )`
	sqlUpsertBlock         = `INSERT INTO blocks(account_id, blocked_account_id, created_at) VALUES (?, ?, ?) ON CONFLICT(account_id, blocked_account_id) DO NOTHING`
	sqlSelectBlocksByAccId = `SELECT account_id, blocked_account_id, created_at FROM blocks WHERE account_id = ? ORDER BY created_at ASC`

	//Lists
	sqlCreateListsTable = `CREATE TABLE IF NOT EXISTS lists(
                        id uuid NOT NULL PRIMARY KEY,
                        account_owner_id uuid NOT NULL,
                        title varchar(255) NOT NULL,
                        replies_policy varchar(20) default 'list',
                        exclusive int default 0,
                        created_at timestamp default current_timestamp
                        )`
	sqlUpsertList = `INSERT INTO lists(id, account_owner_id, title, replies_policy, exclusive, created_at)
                        VALUES (?, ?, ?, ?, ?, ?)
                        ON CONFLICT(id) DO UPDATE SET
                        title = excluded.title,
                        replies_policy = excluded.replies_policy,
                        exclusive = excluded.exclusive`
	sqlSelectListsByOwner = `SELECT id, account_owner_id, title, replies_policy, exclusive, created_at FROM lists WHERE account_owner_id = ? ORDER BY created_at ASC`
)

// SetFileName overrides the database file name. Must be called before
// the first GetDB.
func SetFileName(name string) {
	if name != "" {
		dbFileName = name
	}
}

func GetDB() *DB {
	dbOnce.Do(func() {
		// Resolve database path (local first, then user config dir)
		dbPath := util.ResolveFilePath(dbFileName)
		log.Printf("Using database at: %s", dbPath)

		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			panic(err)
		}

		// Configure connection pool for concurrent access
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(time.Hour)

		// Try to enable WAL2 mode, fall back to WAL if not supported
		var journalMode string
		err = db.QueryRow("PRAGMA journal_mode=WAL2").Scan(&journalMode)
		if err != nil || journalMode == "delete" {
			err = db.QueryRow("PRAGMA journal_mode=WAL").Scan(&journalMode)
			if err != nil {
				log.Printf("Warning: Failed to enable WAL mode: %v", err)
			} else {
				log.Printf("Database journal mode: %s (WAL2 not supported, using WAL)", journalMode)
			}
		} else {
			log.Printf("Database journal mode: %s", journalMode)
		}

		db.Exec("PRAGMA synchronous = NORMAL")
		db.Exec("PRAGMA cache_size = -64000")
		db.Exec("PRAGMA temp_store = MEMORY")
		db.Exec("PRAGMA busy_timeout = 5000")
		db.Exec("PRAGMA foreign_keys = ON")

		dbInstance = &DB{db: db}

		if err := dbInstance.CreateDB(); err != nil {
			panic(err)
		}
	})

	return dbInstance
}

// CreateDB creates the schema.
func (db *DB) CreateDB() error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		for _, stmt := range []string{
			sqlCreateInstancesTable,
			sqlCreateAccountsTable,
			sqlCreateOwnersTable,
			sqlCreatePostsTable,
			sqlCreateMediaTable,
			sqlCreateFollowsTable,
			sqlCreateLikesTable,
			sqlCreateBookmarksTable,
			sqlCreateMutesTable,
			sqlCreateBlocksTable,
			sqlCreateListsTable,
		} {
			if _, err := tx.Exec(stmt); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) wrapTransaction(f func(tx *sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("error starting transaction: %s", err)
		return err
	}
	for {
		err = f(tx)
		if err != nil {
			serr, ok := err.(*sqlite.Error)
			if ok && serr.Code() == sqlitelib.SQLITE_BUSY {
				continue
			}
			tx.Rollback()
			log.Printf("error in transaction: %s", err)
			return err
		}
		err = tx.Commit()
		if err != nil {
			log.Printf("error committing transaction: %s", err)
			return err
		}
		break
	}
	return nil
}

func parseTimestamp(timestampStr string) (time.Time, error) {
	if timestampStr == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	// Remove Z suffix and convert T to space for ISO 8601 format
	if strings.HasSuffix(timestampStr, "Z") {
		timestampStr = strings.TrimSuffix(timestampStr, "Z")
		timestampStr = strings.Replace(timestampStr, "T", " ", 1)
	}

	return time.ParseInLocation("2006-01-02 15:04:05", timestampStr, time.UTC)
}

func fmtTimestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func scanTimestamp(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func jsonMap(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(data)
}

func parseJsonMap(s sql.NullString) map[string]string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil
	}
	return m
}

func jsonList(l []string) string {
	if len(l) == 0 {
		return ""
	}
	data, err := json.Marshal(l)
	if err != nil {
		return ""
	}
	return string(data)
}

func parseJsonList(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	var l []string
	if err := json.Unmarshal([]byte(s.String), &l); err != nil {
		return nil
	}
	return l
}

// EnsureInstance inserts the host row when it is not known yet
func (db *DB) EnsureInstance(host string, software string) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertInstance, host, software, fmtTimestamp(time.Time{}))
		return err
	})
}

func (db *DB) ReadInstanceByHost(host string) (error, *domain.Instance) {
	var inst domain.Instance
	var software, createdAt sql.NullString
	row := db.db.QueryRow(sqlSelectInstanceByHost, host)
	err := row.Scan(&inst.Host, &software, &createdAt)
	if err != nil {
		return err, nil
	}
	inst.Software = software.String
	inst.CreatedAt = scanTimestamp(createdAt)
	return nil, &inst
}

func (db *DB) CreateAccount(acc *domain.Account) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return insertAccount(tx, acc)
	})
}

func insertAccount(tx *sql.Tx, acc *domain.Account) error {
	_, err := tx.Exec(sqlInsertAccount,
		acc.Id, acc.IRI, acc.Handle, acc.DisplayName, acc.Bio, acc.AvatarURL, acc.CoverURL,
		boolToInt(acc.Protected), acc.InstanceHost, acc.FollowersCount, acc.FollowingCount,
		acc.PostsCount, jsonMap(acc.FieldHtmls), fmtTimestamp(acc.Published), fmtTimestamp(acc.CreatedAt))
	return err
}

func (db *DB) ReadAccById(id uuid.UUID) (error, *domain.Account) {
	return db.readAccount(db.db.QueryRow(sqlSelectAccountById, id))
}

func (db *DB) ReadAccByIRI(iri string) (error, *domain.Account) {
	return db.readAccount(db.db.QueryRow(sqlSelectAccountByIRI, iri))
}

func (db *DB) readAccount(row *sql.Row) (error, *domain.Account) {
	var acc domain.Account
	var displayName, bio, avatarURL, coverURL, fieldHtmls, published, createdAt sql.NullString
	var protected sql.NullInt64
	err := row.Scan(&acc.Id, &acc.IRI, &acc.Handle, &displayName, &bio, &avatarURL, &coverURL,
		&protected, &acc.InstanceHost, &acc.FollowersCount, &acc.FollowingCount, &acc.PostsCount,
		&fieldHtmls, &published, &createdAt)
	if err != nil {
		return err, nil
	}
	acc.DisplayName = displayName.String
	acc.Bio = bio.String
	acc.AvatarURL = avatarURL.String
	acc.CoverURL = coverURL.String
	acc.Protected = protected.Int64 == 1
	acc.FieldHtmls = parseJsonMap(fieldHtmls)
	acc.Published = scanTimestamp(published)
	acc.CreatedAt = scanTimestamp(createdAt)
	return nil, &acc
}

func (db *DB) DeleteAccount(id uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteAccount, id)
		return err
	})
}

// UpdateAccountCounts refreshes the denormalized relation counters
func (db *DB) UpdateAccountCounts(id uuid.UUID, followers, following, posts int) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpdateAccountCounts, followers, following, posts, id)
		return err
	})
}

func (db *DB) CreateAccountOwner(owner *domain.AccountOwner) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		return insertOwner(tx, owner)
	})
}

func insertOwner(tx *sql.Tx, owner *domain.AccountOwner) error {
	_, err := tx.Exec(sqlInsertOwner,
		owner.Id, owner.Handle, owner.RsaPrivateKeyPem, owner.RsaPublicKeyPem,
		owner.Language, owner.Visibility, jsonList(owner.FollowedTags),
		boolToInt(owner.DiscoverableByDefault), fmtTimestamp(owner.CreatedAt))
	return err
}

func (db *DB) ReadOwnerById(id uuid.UUID) (error, *domain.AccountOwner) {
	var owner domain.AccountOwner
	var privKey, pubKey, language, visibility, followedTags, createdAt sql.NullString
	var discoverable sql.NullInt64
	row := db.db.QueryRow(sqlSelectOwnerById, id)
	err := row.Scan(&owner.Id, &owner.Handle, &privKey, &pubKey, &language, &visibility,
		&followedTags, &discoverable, &createdAt)
	if err != nil {
		return err, nil
	}
	owner.RsaPrivateKeyPem = privKey.String
	owner.RsaPublicKeyPem = pubKey.String
	owner.Language = language.String
	owner.Visibility = visibility.String
	owner.FollowedTags = parseJsonList(followedTags)
	owner.DiscoverableByDefault = discoverable.Int64 == 1
	owner.CreatedAt = scanTimestamp(createdAt)
	return nil, &owner
}

func (db *DB) DeleteAccountOwner(id uuid.UUID) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlDeleteOwner, id)
		return err
	})
}

// SwapAccountIdentity replaces the account row at oldId with acc in a
// single transaction: the home instance row is ensured, the owner row
// is carried over with its key material, and both old rows are gone
// when the new ones land. Fails with domain.ErrOwnerNotFound when
// oldId has no owner row, leaving everything untouched.
func (db *DB) SwapAccountIdentity(oldId uuid.UUID, acc *domain.Account) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(sqlInsertInstance, acc.InstanceHost, "", fmtTimestamp(time.Time{})); err != nil {
			return err
		}

		var owner domain.AccountOwner
		var privKey, pubKey, language, visibility, followedTags, createdAt sql.NullString
		var discoverable sql.NullInt64
		row := tx.QueryRow(sqlSelectOwnerById, oldId)
		err := row.Scan(&owner.Id, &owner.Handle, &privKey, &pubKey, &language, &visibility,
			&followedTags, &discoverable, &createdAt)
		if err == sql.ErrNoRows {
			return domain.ErrOwnerNotFound
		}
		if err != nil {
			return err
		}
		owner.RsaPrivateKeyPem = privKey.String
		owner.RsaPublicKeyPem = pubKey.String
		owner.Language = language.String
		owner.Visibility = visibility.String
		owner.FollowedTags = parseJsonList(followedTags)
		owner.DiscoverableByDefault = discoverable.Int64 == 1
		owner.CreatedAt = scanTimestamp(createdAt)

		if _, err := tx.Exec(sqlDeleteOwner, oldId); err != nil {
			return err
		}
		if _, err := tx.Exec(sqlDeleteAccount, oldId); err != nil {
			return err
		}

		if err := insertAccount(tx, acc); err != nil {
			return err
		}

		owner.Id = acc.Id
		owner.Handle = acc.Handle
		return insertOwner(tx, &owner)
	})
}

// UpsertPostByIRI inserts the post or, when the IRI is already known,
// refreshes its content and account while keeping the existing row id.
func (db *DB) UpsertPostByIRI(post *domain.Post) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		var replyTarget any
		if post.ReplyTargetId != nil {
			replyTarget = *post.ReplyTargetId
		}
		var summary any
		if post.Summary != nil {
			summary = *post.Summary
		}
		_, err := tx.Exec(sqlUpsertPost,
			post.Id, post.IRI, post.Type, post.AccountId, replyTarget, post.Visibility,
			summary, post.ContentHtml, post.Language, post.URL, boolToInt(post.Sensitive),
			post.RepliesCount, post.SharesCount, post.LikesCount,
			fmtTimestamp(post.Published), fmtTimestamp(post.Updated))
		return err
	})
}

func (db *DB) ReadPostById(id uuid.UUID) (error, *domain.Post) {
	return readPostRow(db.db.QueryRow(sqlSelectPostById, id))
}

func (db *DB) ReadPostByIRI(iri string) (error, *domain.Post) {
	return readPostRow(db.db.QueryRow(sqlSelectPostByIRI, iri))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func readPostRow(row rowScanner) (error, *domain.Post) {
	var post domain.Post
	var replyTarget, summary, contentHtml, language, url, published, updated sql.NullString
	var sensitive sql.NullInt64
	err := row.Scan(&post.Id, &post.IRI, &post.Type, &post.AccountId, &replyTarget,
		&post.Visibility, &summary, &contentHtml, &language, &url, &sensitive,
		&post.RepliesCount, &post.SharesCount, &post.LikesCount, &published, &updated)
	if err != nil {
		return err, nil
	}
	if replyTarget.Valid {
		if id, err := uuid.Parse(replyTarget.String); err == nil {
			post.ReplyTargetId = &id
		}
	}
	if summary.Valid {
		s := summary.String
		post.Summary = &s
	}
	post.ContentHtml = contentHtml.String
	post.Language = language.String
	post.URL = url.String
	post.Sensitive = sensitive.Int64 == 1
	post.Published = scanTimestamp(published)
	post.Updated = scanTimestamp(updated)
	return nil, &post
}

func (db *DB) ReadPostsByAccountId(accountId uuid.UUID) (error, *[]domain.Post) {
	rows, err := db.db.Query(sqlSelectPostsByAccountId, accountId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		err, post := readPostRow(rows)
		if err != nil {
			return err, &posts
		}
		posts = append(posts, *post)
	}
	if err = rows.Err(); err != nil {
		return err, &posts
	}

	return nil, &posts
}

func (db *DB) CountPostsByAccountId(accountId uuid.UUID) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountPostsByAccountId, accountId).Scan(&count)
	return err, count
}

func (db *DB) CreateMediaAttachment(media *domain.MediaAttachment) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlInsertMedia, media.Id, media.PostId, media.Type, media.URL,
			media.ContentType, media.Description, media.Width, media.Height, fmtTimestamp(media.CreatedAt))
		return err
	})
}

func (db *DB) ReadMediaByPostId(postId uuid.UUID) (error, *[]domain.MediaAttachment) {
	rows, err := db.db.Query(sqlSelectMediaByPostId, postId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var attachments []domain.MediaAttachment
	for rows.Next() {
		var m domain.MediaAttachment
		var contentType, description, createdAt sql.NullString
		err := rows.Scan(&m.Id, &m.PostId, &m.Type, &m.URL, &contentType, &description,
			&m.Width, &m.Height, &createdAt)
		if err != nil {
			return err, &attachments
		}
		m.ContentType = contentType.String
		m.Description = description.String
		m.CreatedAt = scanTimestamp(createdAt)
		attachments = append(attachments, m)
	}
	if err = rows.Err(); err != nil {
		return err, &attachments
	}

	return nil, &attachments
}

func (db *DB) UpsertFollow(follow *domain.Follow) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		var approved any
		if follow.Approved != nil {
			approved = fmtTimestamp(*follow.Approved)
		}
		_, err := tx.Exec(sqlUpsertFollow,
			follow.FollowerId, follow.FollowingId, follow.IRI, boolToInt(follow.Shares),
			boolToInt(follow.Notify), jsonList(follow.Languages), approved, fmtTimestamp(follow.CreatedAt))
		return err
	})
}

func (db *DB) ReadFollowersByAccountId(accountId uuid.UUID) (error, *[]domain.Follow) {
	return db.readFollows(sqlSelectFollowersByAccId, accountId)
}

func (db *DB) ReadFollowingByAccountId(accountId uuid.UUID) (error, *[]domain.Follow) {
	return db.readFollows(sqlSelectFollowingByAccId, accountId)
}

func (db *DB) CountFollowersByAccountId(accountId uuid.UUID) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountFollowersByAccId, accountId).Scan(&count)
	return err, count
}

func (db *DB) CountFollowingByAccountId(accountId uuid.UUID) (error, int) {
	var count int
	err := db.db.QueryRow(sqlCountFollowingByAccId, accountId).Scan(&count)
	return err, count
}

func (db *DB) readFollows(query string, accountId uuid.UUID) (error, *[]domain.Follow) {
	rows, err := db.db.Query(query, accountId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var follows []domain.Follow
	for rows.Next() {
		err, follow := scanFollow(rows)
		if err != nil {
			return err, &follows
		}
		follows = append(follows, *follow)
	}
	if err = rows.Err(); err != nil {
		return err, &follows
	}

	return nil, &follows
}

func (db *DB) ReadFollowByPair(followerId, followingId uuid.UUID) (error, *domain.Follow) {
	return scanFollow(db.db.QueryRow(sqlSelectFollowByPair, followerId, followingId))
}

func scanFollow(row rowScanner) (error, *domain.Follow) {
	var follow domain.Follow
	var iri, languages, approved, createdAt sql.NullString
	var shares, notify sql.NullInt64
	err := row.Scan(&follow.FollowerId, &follow.FollowingId, &iri, &shares, &notify,
		&languages, &approved, &createdAt)
	if err != nil {
		return err, nil
	}
	follow.IRI = iri.String
	follow.Shares = shares.Int64 == 1
	follow.Notify = notify.Int64 == 1
	follow.Languages = parseJsonList(languages)
	if approved.Valid {
		t := scanTimestamp(approved)
		follow.Approved = &t
	}
	follow.CreatedAt = scanTimestamp(createdAt)
	return nil, &follow
}

func (db *DB) UpsertLike(like *domain.Like) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertLike, like.AccountId, like.PostId, fmtTimestamp(like.CreatedAt))
		return err
	})
}

func (db *DB) ReadLikesByAccountId(accountId uuid.UUID) (error, *[]domain.Like) {
	rows, err := db.db.Query(sqlSelectLikesByAccId, accountId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var likes []domain.Like
	for rows.Next() {
		var like domain.Like
		var createdAt sql.NullString
		if err := rows.Scan(&like.AccountId, &like.PostId, &createdAt); err != nil {
			return err, &likes
		}
		like.CreatedAt = scanTimestamp(createdAt)
		likes = append(likes, like)
	}
	if err = rows.Err(); err != nil {
		return err, &likes
	}

	return nil, &likes
}

func (db *DB) UpsertBookmark(bookmark *domain.Bookmark) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertBookmark, bookmark.AccountOwnerId, bookmark.PostId, fmtTimestamp(bookmark.CreatedAt))
		return err
	})
}

func (db *DB) ReadBookmarksByOwnerId(ownerId uuid.UUID) (error, *[]domain.Bookmark) {
	rows, err := db.db.Query(sqlSelectBookmarksByOwner, ownerId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var bookmarks []domain.Bookmark
	for rows.Next() {
		var bookmark domain.Bookmark
		var createdAt sql.NullString
		if err := rows.Scan(&bookmark.AccountOwnerId, &bookmark.PostId, &createdAt); err != nil {
			return err, &bookmarks
		}
		bookmark.CreatedAt = scanTimestamp(createdAt)
		bookmarks = append(bookmarks, bookmark)
	}
	if err = rows.Err(); err != nil {
		return err, &bookmarks
	}

	return nil, &bookmarks
}

func (db *DB) UpsertMute(mute *domain.Mute) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		var duration any
		if mute.DurationSeconds != nil {
			duration = *mute.DurationSeconds
		}
		_, err := tx.Exec(sqlUpsertMute, mute.Id, mute.AccountId, mute.MutedAccountId,
			boolToInt(mute.Notifications), duration, fmtTimestamp(mute.CreatedAt))
		return err
	})
}

func (db *DB) ReadMutesByAccountId(accountId uuid.UUID) (error, *[]domain.Mute) {
	rows, err := db.db.Query(sqlSelectMutesByAccId, accountId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var mutes []domain.Mute
	for rows.Next() {
		var mute domain.Mute
		var notifications sql.NullInt64
		var duration sql.NullInt64
		var createdAt sql.NullString
		if err := rows.Scan(&mute.Id, &mute.AccountId, &mute.MutedAccountId, &notifications, &duration, &createdAt); err != nil {
			return err, &mutes
		}
		mute.Notifications = notifications.Int64 == 1
		if duration.Valid {
			d := duration.Int64
			mute.DurationSeconds = &d
		}
		mute.CreatedAt = scanTimestamp(createdAt)
		mutes = append(mutes, mute)
	}
	if err = rows.Err(); err != nil {
		return err, &mutes
	}

	return nil, &mutes
}

func (db *DB) UpsertBlock(block *domain.Block) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertBlock, block.AccountId, block.BlockedAccountId, fmtTimestamp(block.CreatedAt))
		return err
	})
}

func (db *DB) ReadBlocksByAccountId(accountId uuid.UUID) (error, *[]domain.Block) {
	rows, err := db.db.Query(sqlSelectBlocksByAccId, accountId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var blocks []domain.Block
	for rows.Next() {
		var block domain.Block
		var createdAt sql.NullString
		if err := rows.Scan(&block.AccountId, &block.BlockedAccountId, &createdAt); err != nil {
			return err, &blocks
		}
		block.CreatedAt = scanTimestamp(createdAt)
		blocks = append(blocks, block)
	}
	if err = rows.Err(); err != nil {
		return err, &blocks
	}

	return nil, &blocks
}

func (db *DB) UpsertList(list *domain.List) error {
	return db.wrapTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(sqlUpsertList, list.Id, list.AccountOwnerId, list.Title,
			list.RepliesPolicy, boolToInt(list.Exclusive), fmtTimestamp(list.CreatedAt))
		return err
	})
}

func (db *DB) ReadListsByOwnerId(ownerId uuid.UUID) (error, *[]domain.List) {
	rows, err := db.db.Query(sqlSelectListsByOwner, ownerId)
	if err != nil {
		return err, nil
	}
	defer rows.Close()

	var lists []domain.List
	for rows.Next() {
		var list domain.List
		var exclusive sql.NullInt64
		var createdAt sql.NullString
		if err := rows.Scan(&list.Id, &list.AccountOwnerId, &list.Title, &list.RepliesPolicy, &exclusive, &createdAt); err != nil {
			return err, &lists
		}
		list.Exclusive = exclusive.Int64 == 1
		list.CreatedAt = scanTimestamp(createdAt)
		lists = append(lists, list)
	}
	if err = rows.Err(); err != nil {
		return err, &lists
	}

	return nil, &lists
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
