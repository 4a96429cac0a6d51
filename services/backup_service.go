package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"admin-dashboard/config"
	"admin-dashboard/database"
	"admin-dashboard/models"
	"admin-dashboard/notify"
	"admin-dashboard/repositories"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const backupSuffixAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Runner executes an external program and returns its combined output.
type Runner func(ctx context.Context, name string, args []string, env []string) ([]byte, error)

// ExecRunner runs the program with os/exec.
func ExecRunner(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

// ServerConn holds what pg_dump and psql need to reach the server.
type ServerConn struct {
	Host     string
	Port     string
	User     string
	Password string
}

type BackupOptions struct {
	Driver  string
	Dir     string
	PgDump  string
	Psql    string
	Timeout time.Duration
	Conn    ServerConn
	Run     Runner
}

// BackupOptionsFromConfig reads BACKUP_DIR, PG_DUMP_PATH, PSQL_PATH,
// BACKUP_TIMEOUT and the DB_* connection settings.
func BackupOptionsFromConfig() BackupOptions {
	return BackupOptions{
		Driver:  config.DBDriver,
		Dir:     config.BackupDir,
		PgDump:  config.PgDumpPath,
		Psql:    config.PsqlPath,
		Timeout: config.BackupTimeout,
		Conn: ServerConn{
			Host:     config.DBHost,
			Port:     config.DBPort,
			User:     config.DBUser,
			Password: config.DBPassword,
		},
		Run: ExecRunner,
	}
}

// BackupService wraps pg_dump and psql, one subprocess per request.
type BackupService struct {
	repo     *repositories.AdminRepository
	notifier notify.Notifier
	opts     BackupOptions
	now      func() time.Time
}

func NewBackupService(repo *repositories.AdminRepository, notifier notify.Notifier, opts BackupOptions) *BackupService {
	if opts.Run == nil {
		opts.Run = ExecRunner
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	return &BackupService{repo: repo, notifier: notifier, opts: opts, now: time.Now}
}

func (s *BackupService) connArgs(dbName string) []string {
	return []string{"-h", s.opts.Conn.Host, "-p", s.opts.Conn.Port, "-U", s.opts.Conn.User, "-d", dbName}
}

func (s *BackupService) env() []string {
	return []string{"PGPASSWORD=" + s.opts.Conn.Password}
}

func (s *BackupService) List(ctx context.Context, dbName string) ([]models.Backup, error) {
	if err := checkName("database", dbName); err != nil {
		return nil, err
	}
	return s.repo.ListBackups(ctx, dbName)
}

// Backup dumps dbName to a new plain SQL file in the backup directory.
func (s *BackupService) Backup(ctx context.Context, dbName string, userID uint) (*models.Backup, error) {
	if err := checkName("database", dbName); err != nil {
		return nil, err
	}
	if err := backupSupported(s.opts.Driver); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.opts.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	suffix, err := gonanoid.Generate(backupSuffixAlphabet, 8)
	if err != nil {
		return nil, err
	}
	started := s.now()
	fileName := fmt.Sprintf("%s_%s_%s.sql", dbName, started.Format("20060102_150405"), suffix)
	path := filepath.Join(s.opts.Dir, fileName)

	args := append(s.connArgs(dbName), "--no-owner", "-f", path)
	runErr := s.run(ctx, s.opts.PgDump, args)

	record := &models.Backup{
		Kind:       models.BackupKindBackup,
		DbName:     dbName,
		FileName:   fileName,
		Status:     models.BackupStatusCompleted,
		DurationMs: s.now().Sub(started).Milliseconds(),
		CreatedBy:  userID,
	}
	if runErr != nil {
		record.Status = models.BackupStatusFailed
		record.Error = runErr.Error()
		os.Remove(path)
	} else if info, err := os.Stat(path); err == nil {
		record.SizeBytes = info.Size()
	}

	return s.finish(ctx, record, runErr)
}

// Restore replays a backup file of the backup directory into dbName.
func (s *BackupService) Restore(ctx context.Context, dbName, fileName string, userID uint) (*models.Backup, error) {
	if err := checkName("database", dbName); err != nil {
		return nil, err
	}
	if err := backupSupported(s.opts.Driver); err != nil {
		return nil, err
	}
	if fileName == "" || filepath.Base(fileName) != fileName || !strings.HasSuffix(fileName, ".sql") {
		return nil, validationErrorf("invalid backup file name %q", fileName)
	}
	path := filepath.Join(s.opts.Dir, fileName)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, notFoundf("backup file %s", fileName)
	}
	if err != nil {
		return nil, err
	}

	started := s.now()
	args := append(s.connArgs(dbName), "-v", "ON_ERROR_STOP=1", "-f", path)
	runErr := s.run(ctx, s.opts.Psql, args)

	record := &models.Backup{
		Kind:       models.BackupKindRestore,
		DbName:     dbName,
		FileName:   fileName,
		SizeBytes:  info.Size(),
		Status:     models.BackupStatusCompleted,
		DurationMs: s.now().Sub(started).Milliseconds(),
		CreatedBy:  userID,
	}
	if runErr != nil {
		record.Status = models.BackupStatusFailed
		record.Error = runErr.Error()
	}
	return s.finish(ctx, record, runErr)
}

func (s *BackupService) run(ctx context.Context, program string, args []string) error {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	out, err := s.opts.Run(ctx, program, args, s.env())
	if err != nil {
		msg := strings.TrimSpace(string(out))
		if msg == "" {
			return fmt.Errorf("%s: %w", filepath.Base(program), err)
		}
		return fmt.Errorf("%s: %w: %s", filepath.Base(program), err, msg)
	}
	return nil
}

// finish stores the run, sends the notice and returns the run error, if any.
func (s *BackupService) finish(ctx context.Context, record *models.Backup, runErr error) (*models.Backup, error) {
	if err := s.repo.CreateBackup(ctx, record); err != nil {
		slog.Error("record backup run", "db", record.DbName, "kind", record.Kind, "error", err)
	}
	if err := s.repo.Record(ctx, &models.AdminHistory{
		Action:    record.Kind,
		Target:    record.DbName,
		Status:    record.Status,
		Detail:    record.FileName,
		CreatedBy: record.CreatedBy,
	}); err != nil {
		slog.Warn("record admin history", "action", record.Kind, "error", err)
	}

	subject := fmt.Sprintf("%s of %s %s", strings.ToUpper(record.Kind[:1])+record.Kind[1:], record.DbName, record.Status)
	body := fmt.Sprintf("<p>%s</p><p>File: <strong>%s</strong><br>Duration: %d ms</p>", subject, record.FileName, record.DurationMs)
	if record.Error != "" {
		body += fmt.Sprintf("<pre>%s</pre>", record.Error)
	}
	if err := s.notifier.Notify(subject, body); err != nil {
		slog.Warn("send backup notice", "db", record.DbName, "error", err)
	}

	if runErr != nil {
		slog.Error("database "+record.Kind+" failed", "db", record.DbName, "file", record.FileName, "error", runErr)
		return record, runErr
	}
	slog.Info("database "+record.Kind+" completed", "db", record.DbName, "file", record.FileName, "bytes", record.SizeBytes)
	return record, nil
}

// backupSupported reports whether the configured driver can be dumped.
func backupSupported(driver string) error {
	if driver != "postgres" {
		return fmt.Errorf("%w: backups need postgres, driver is %s", database.ErrUnsupported, driver)
	}
	return nil
}
