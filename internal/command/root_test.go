package command

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/viniciusth/dedupe"

	"github.com/nuclio/errors"
	"github.com/stretchr/testify/suite"
)

type CommandTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *CommandTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()

	for _, name := range []string{minLengthEnv, debugEnv, debugLogPathEnv} {
		suite.T().Setenv(name, "")
	}
}

func (suite *CommandTestSuite) execute(stdin string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd := NewRootCommandeer().GetCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (suite *CommandTestSuite) writeFile(name, contents string) string {
	path := filepath.Join(suite.tempDir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(contents), 0600))
	return path
}

func (suite *CommandTestSuite) TestMinLengthValidation() {
	for _, testCase := range []struct {
		name          string
		args          []string
		env           string
		expectedError error
	}{
		{name: "missing", expectedError: ErrMissingMinLength},
		{name: "not an integer", args: []string{"--min-length", "abc"}, expectedError: ErrInvalidMinLength},
		{name: "zero", args: []string{"--min-length", "0"}, expectedError: ErrInvalidMinLength},
		{name: "negative", args: []string{"--min-length=-3"}, expectedError: ErrInvalidMinLength},
		{name: "invalid environment", env: "ten", expectedError: ErrInvalidMinLength},
	} {
		suite.Run(testCase.name, func() {
			suite.T().Setenv(minLengthEnv, testCase.env)

			stdout, _, err := suite.execute("hi hi", testCase.args...)
			suite.Require().Error(err)
			suite.Require().Equal(testCase.expectedError, errors.RootCause(err))
			suite.Require().Empty(stdout)
		})
	}
}

func (suite *CommandTestSuite) TestStdin() {
	stdout, _, err := suite.execute("so moreso moreso", "--min-length", "3")
	suite.Require().NoError(err)
	suite.Require().Equal("so more\n", stdout)
}

func (suite *CommandTestSuite) TestMinLengthFromEnvironment() {
	suite.T().Setenv(minLengthEnv, "2")

	stdout, _, err := suite.execute("hi hi")
	suite.Require().NoError(err)
	suite.Require().Equal("hi \n", stdout)
}

func (suite *CommandTestSuite) TestFlagOverridesEnvironment() {
	suite.T().Setenv(minLengthEnv, "2")

	stdout, _, err := suite.execute("hi hi", "-m", "3")
	suite.Require().NoError(err)
	suite.Require().Equal("hi hi\n", stdout)
}

func (suite *CommandTestSuite) TestFilesKeepArgumentOrder() {
	var paths []string
	var expected strings.Builder
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		contents := "block " + name + " block " + name
		paths = append(paths, suite.writeFile(name+".txt", contents))
		expected.WriteString(dedupe.Deduplicate(6, contents) + "\n")
	}

	args := append([]string{"--min-length", "6", "--jobs", "2"}, paths...)
	stdout, _, err := suite.execute("", args...)
	suite.Require().NoError(err)
	suite.Require().Equal(expected.String(), stdout)
	suite.Require().True(strings.HasPrefix(stdout, "block a \n"))
}

func (suite *CommandTestSuite) TestMissingFile() {
	_, _, err := suite.execute("", "--min-length", "3", filepath.Join(suite.tempDir, "missing.txt"))
	suite.Require().Error(err)
	suite.Require().True(os.IsNotExist(errors.RootCause(err)))
}

func (suite *CommandTestSuite) TestInvalidJobs() {
	_, _, err := suite.execute("hi hi", "--min-length", "2", "--jobs", "0")
	suite.Require().Error(err)
}

func (suite *CommandTestSuite) TestInvalidUTF8() {
	_, _, err := suite.execute("hi \xff hi", "--min-length", "2")
	suite.Require().Error(err)
	suite.Require().Equal(dedupe.ErrInvalidUTF8, errors.RootCause(err))
}

func (suite *CommandTestSuite) TestNormalize() {
	stdout, _, err := suite.execute("caf\u00e9 cafe\u0301", "--min-length", "4", "--normalize")
	suite.Require().NoError(err)
	suite.Require().Equal("caf\u00e9 \n", stdout)
}

func (suite *CommandTestSuite) TestDebugLog() {
	debugLogPath := filepath.Join(suite.tempDir, "trace.log")

	stdout, stderr, err := suite.execute("so moreso moreso", "--min-length", "3", "--debug", "--debug-log", debugLogPath)
	suite.Require().NoError(err)
	suite.Require().Equal("so more\n", stdout)
	suite.Require().Contains(stderr, "Writing debug output")

	debugLog, err := os.ReadFile(debugLogPath)
	suite.Require().NoError(err)
	for _, section := range []string{"Suffix array", "LCP array", "Consolidated duplicate ranges", "so moreso"} {
		suite.Require().Contains(string(debugLog), section)
	}
}

func (suite *CommandTestSuite) TestDebugFromEnvironment() {
	debugLogPath := filepath.Join(suite.tempDir, "env.log")
	suite.T().Setenv(minLengthEnv, "2")
	suite.T().Setenv(debugEnv, "TRUE")
	suite.T().Setenv(debugLogPathEnv, debugLogPath)

	stdout, _, err := suite.execute("hi hi")
	suite.Require().NoError(err)
	suite.Require().Equal("hi \n", stdout)
	suite.Require().FileExists(debugLogPath)
}

func (suite *CommandTestSuite) TestVerboseLogsStages() {
	_, stderr, err := suite.execute("hi hi", "--min-length", "2", "--verbose")
	suite.Require().NoError(err)
	suite.Require().Contains(stderr, "Deduplication complete")
}

func TestCommandTestSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}
