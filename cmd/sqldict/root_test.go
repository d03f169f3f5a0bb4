package main

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-andiamo/sqldict/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const employeesSource = `{
  "statements": {
    "employee_by_number": {
      "description": ["Find an employee by number", "(exact match)"],
      "statement_text": ["SELECT * FROM employees", "WHERE emp_no = ?"],
      "parameters": [
        {"name": "emp_no", "param_type": "marker", "data_type": "int", "description": "employee number"}
      ]
    },
    "department_by_name": {
      "statement_text": ["SELECT * FROM departments WHERE dept_name = @name"],
      "parameters": [
        {"name": "name", "param_type": "substitute", "data_type": "string", "regex": "^[A-Za-z ]+$"}
      ]
    },
    "purge_departments": {
      "statement_text": ["DELETE FROM departments"]
    }
  }
}`

type script struct {
	answers []string
	labels  []string
}

func (s *script) Prompt(label string) (string, error) {
	s.labels = append(s.labels, label)
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// syncBuffer is a bytes.Buffer safe for a command writing in another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// setup creates a source directory and a config file pointing at it.
func setup(t *testing.T, configYAML string) (sqlDir string, cfgPath string) {
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() { log.SetOutput(nil) })
	sqlDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, "employees.json"), []byte(employeesSource), 0o644))
	cfgPath = filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("sql_dir: "+sqlDir+"\n"+configYAML), 0o644))
	return sqlDir, cfgPath
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.Execute()
	return out.String(), err
}

func mockOpener(t *testing.T, a *app) sqlmock.Sqlmock {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	a.opener = func(driverName string, dsn string) (*sql.DB, error) {
		return db, nil
	}
	return mock
}

func TestList(t *testing.T) {
	_, cfgPath := setup(t, "")
	out, err := execute(t, &app{}, "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, " name                ")
	assert.Contains(t, out, " department_by_name  employees.json  name ")
	assert.Contains(t, out, " employee_by_number  employees.json  emp_no      Find an employee by number ")
	assert.Less(t, strings.Index(out, "department_by_name"), strings.Index(out, "employee_by_number"))
	assert.Less(t, strings.Index(out, "employee_by_number"), strings.Index(out, "purge_departments"))
}

func TestList_Pattern(t *testing.T) {
	_, cfgPath := setup(t, "")
	out, err := execute(t, &app{}, "list", "^emp", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "employee_by_number")
	assert.NotContains(t, out, "department_by_name")

	out, err = execute(t, &app{}, "list", "xyz", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "No statements match 'xyz'\n", out)

	_, err = execute(t, &app{}, "list", "[", "--config", cfgPath)
	assert.ErrorContains(t, err, "invalid pattern '['")
}

func TestList_SQLDirFlag(t *testing.T) {
	_, cfgPath := setup(t, "")
	_, err := execute(t, &app{}, "list", "--config", cfgPath, "--sql-dir", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "no sources")
}

func TestShow(t *testing.T) {
	_, cfgPath := setup(t, "")
	out, err := execute(t, &app{}, "show", "employee_by_number", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "employee_by_number  (employees.json)\n"+
		"    Find an employee by number\n"+
		"    (exact match)\n\n"+
		"    SELECT * FROM employees\n"+
		"    WHERE emp_no = ?\n")
	assert.Contains(t, out, " emp_no     MARKER      INT  ")
	assert.Contains(t, out, "employee number")

	_, err = execute(t, &app{}, "show", "nope", "--config", cfgPath)
	assert.EqualError(t, err, `statement "nope" not found`)
}

func TestRender(t *testing.T) {
	_, cfgPath := setup(t, "")
	testCases := []struct {
		args      []string
		expect    string
		expectErr string
	}{
		{
			args:   []string{"employee_by_number", "--param", "emp_no=010001"},
			expect: "SELECT * FROM employees\nWHERE emp_no = 10001\n",
		},
		{
			args:   []string{"department_by_name", "-p", "name=Sales"},
			expect: "SELECT * FROM departments WHERE dept_name = Sales\n",
		},
		{
			args:   []string{"purge_departments"},
			expect: "DELETE FROM departments\n",
		},
		{
			args:   []string{"department_by_name"},
			expect: "parameter name is not set\nSELECT * FROM departments WHERE dept_name = @name\n",
		},
		{
			args:      []string{"employee_by_number", "--param", "emp_no=abc"},
			expectErr: "emp_no",
		},
		{
			args:      []string{"department_by_name", "-p", "name=Sales!"},
			expectErr: "name",
		},
		{
			args:      []string{"employee_by_number", "--param", "emp_no"},
			expectErr: `invalid parameter "emp_no" (expected name=value)`,
		},
		{
			args:      []string{"employee_by_number", "--param", "id=1"},
			expectErr: "unknown parameter 'id'",
		},
		{
			args:      []string{"nope"},
			expectErr: `statement "nope" not found`,
		},
	}
	for _, tc := range testCases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			out, err := execute(t, &app{}, append([]string{"render", "--config", cfgPath}, tc.args...)...)
			if tc.expectErr != "" {
				assert.ErrorContains(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, out)
		})
	}
}

func TestRender_Duplicate(t *testing.T) {
	sqlDir, cfgPath := setup(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, "more.json"), []byte(employeesSource), 0o644))
	_, err := execute(t, &app{}, "render", "purge_departments", "--config", cfgPath)
	assert.EqualError(t, err, `statement "purge_departments" is defined in 2 sources`)
}

func TestExec(t *testing.T) {
	_, cfgPath := setup(t, "")
	a := &app{}
	mock := mockOpener(t, a)
	mock.ExpectQuery("SELECT * FROM employees\nWHERE emp_no = 10001").
		WillReturnRows(sqlmock.NewRows([]string{"emp_no", "first_name"}).AddRow(int64(10001), "Georgi"))
	mock.ExpectClose()
	out, err := execute(t, a, "exec", "employee_by_number", "-p", "emp_no=10001", "--db", "employees", "--yes", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, " emp_no  first_name \n")
	assert.Contains(t, out, "  10001  Georgi     \n")
	assert.Contains(t, out, "Rows affected 0, rows returned 1\n")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExec_Confirm(t *testing.T) {
	_, cfgPath := setup(t, "")
	a := &app{prompter: &script{answers: []string{"y"}}}
	mock := mockOpener(t, a)
	mock.ExpectExec("DELETE FROM departments").WillReturnResult(sqlmock.NewResult(0, 9))
	mock.ExpectClose()
	out, err := execute(t, a, "exec", "purge_departments", "--db", "employees", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Ready to execute purge_departments on employees:\n\nDELETE FROM departments\n")
	assert.Contains(t, out, "Rows affected 9, rows returned 0\n")
	assert.Equal(t, []string{"Enter 'y' to execute, nothing to quit: "}, a.prompter.(*script).labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExec_NotConfirmed(t *testing.T) {
	_, cfgPath := setup(t, "")
	a := &app{prompter: &script{}}
	mock := mockOpener(t, a)
	out, err := execute(t, a, "exec", "purge_departments", "--db", "employees", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Not executed\n")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExec_NoAutocommit(t *testing.T) {
	_, cfgPath := setup(t, "autocommit: false\n")
	testCases := []struct {
		commit bool
		expect string
	}{
		{expect: "Rows affected 9, rows returned 0 (rolled back, autocommit is off)\n"},
		{commit: true, expect: "Rows affected 9, rows returned 0\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.expect, func(t *testing.T) {
			a := &app{}
			mock := mockOpener(t, a)
			mock.ExpectBegin()
			mock.ExpectExec("DELETE FROM departments").WillReturnResult(sqlmock.NewResult(0, 9))
			if tc.commit {
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}
			mock.ExpectClose()
			args := []string{"exec", "purge_departments", "--db", "employees", "--yes", "--config", cfgPath}
			if tc.commit {
				args = append(args, "--commit")
			}
			out, err := execute(t, a, args...)
			require.NoError(t, err)
			assert.Contains(t, out, tc.expect)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExec_Errors(t *testing.T) {
	_, cfgPath := setup(t, "")
	_, err := execute(t, &app{}, "exec", "purge_departments", "--yes", "--config", cfgPath)
	assert.ErrorContains(t, err, `required flag(s) "db" not set`)

	a := &app{}
	mock := mockOpener(t, a)
	mock.ExpectExec("DELETE FROM departments").WillReturnError(sql.ErrConnDone)
	mock.ExpectClose()
	_, err = execute(t, a, "exec", "purge_departments", "--db", "employees", "--yes", "--config", cfgPath)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.ErrorContains(t, err, "executing purge_departments: ")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExec_AuditLog(t *testing.T) {
	_, cfgPath := setup(t, "")
	logPath := filepath.Join(t.TempDir(), "sqldict.log")
	a := &app{}
	mock := mockOpener(t, a)
	mock.ExpectExec("DELETE FROM departments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()
	_, err := execute(t, a, "exec", "purge_departments", "--db", "employees", "--yes", "--config", cfgPath,
		"--debug", "--log-file", logPath)
	require.NoError(t, err)
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] [registry] loaded statements")
	assert.Contains(t, string(data), "[INFO] [db] audit event=execute")
	assert.Contains(t, string(data), "statement=DELETE FROM departments")
}

func TestConfigShow(t *testing.T) {
	_, cfgPath := setup(t, "password: secret\nport: 3307\n")
	out, err := execute(t, &app{}, "config", "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Current config settings are ("+cfgPath+"):\n"+
		"  driver = mysql\n"+
		"  user = root\n"+
		"  password = ********\n"+
		"  host = 127.0.0.1\n"+
		"  port = 3307\n"+
		"  autocommit = true\n")
	assert.NotContains(t, out, "secret")
}

func TestConfigShow_Env(t *testing.T) {
	_, cfgPath := setup(t, "")
	t.Setenv("SQLDICT_DRIVER", "postgres")
	t.Setenv("SQLDICT_PORT", "5433")
	out, err := execute(t, &app{}, "config", "show", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "  driver = postgres\n")
	assert.Contains(t, out, "  port = 5433\n")

	out, err = execute(t, &app{}, "config", "show", "--config", cfgPath, "--driver", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "  driver = sqlite\n")

	t.Setenv("SQLDICT_DRIVER", "oracle")
	_, err = execute(t, &app{}, "config", "show", "--config", cfgPath)
	assert.ErrorContains(t, err, "oracle")
}

func TestConfigSet(t *testing.T) {
	_, cfgPath := setup(t, "# connection\nport: 3306\n")
	out, err := execute(t, &app{}, "config", "set", "port", "3307", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "port = 3307\n", out)
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# connection\n")
	assert.Contains(t, string(data), "port: 3307\n")

	_, err = execute(t, &app{}, "config", "set", "port", "abc", "--config", cfgPath)
	assert.ErrorContains(t, err, "port")
	_, err = execute(t, &app{}, "config", "set", "colour", "red", "--config", cfgPath)
	assert.EqualError(t, err, `unknown config key "colour"`)
}

func TestConfig_DefaultFileWritten(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out, err := execute(t, &app{}, "config", "show")
	require.NoError(t, err)
	path := filepath.Join(home, ".config", "sqldict", "config.yaml")
	assert.Contains(t, out, "("+path+")")
	assert.Contains(t, out, "  driver = mysql\n")
	assert.FileExists(t, path)
}

func TestConfig_InvalidFile(t *testing.T) {
	_, cfgPath := setup(t, "")
	require.NoError(t, os.WriteFile(cfgPath, []byte("driver: [mysql\n"), 0o644))
	_, err := execute(t, &app{}, "config", "show", "--config", cfgPath)
	assert.ErrorContains(t, err, "reading config "+cfgPath)
}

func TestRootRunsShell(t *testing.T) {
	_, cfgPath := setup(t, "")
	s := &script{answers: []string{"x purge", "", ""}}
	out, err := execute(t, &app{prompter: s}, "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Options:\n")
	assert.Contains(t, out, "Ready to execute purge_departments:\n\nDELETE FROM departments\n")
	assert.Equal(t, "Enter an option code or nothing to quit: ", s.labels[0])
	assert.Empty(t, s.answers)
}

func TestRootRunsShell_Setup(t *testing.T) {
	_, cfgPath := setup(t, "")
	s := &script{answers: []string{"m", "", "", "", "", "3310", "", "", "", ""}}
	out, err := execute(t, &app{prompter: s}, "--setup", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Current config settings are:\n")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "port: 3310\n")
}

func TestWatch(t *testing.T) {
	sqlDir, cfgPath := setup(t, "")
	cmd := newRootCmd(&app{})
	out := &syncBuffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"watch", "dep", "--debounce", "20ms", "--config", cfgPath, "--no-color"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "department_by_name")
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, out.String(), "dept_manager")

	source := `{"statements": {"dept_manager": {"statement_text": ["SELECT * FROM dept_manager"]}}}`
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, "managers.json"), []byte(source), 0o644))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "dept_manager")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "Sources changed ")
	assert.Contains(t, out.String(), "  + dept_manager (managers.json)\n")

	changed := strings.Replace(employeesSource, "dept_name = @name", "dept_name LIKE @name", 1)
	require.NoError(t, os.WriteFile(filepath.Join(sqlDir, "employees.json"), []byte(changed), 0o644))
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "  ~ department_by_name (employees.json)\n")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "{+LIKE+}")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}
