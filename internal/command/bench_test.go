package command

import (
	"math/rand"
	"strings"
	"unicode/utf8"

	"github.com/nuclio/errors"
)

func (suite *CommandTestSuite) TestBench() {
	stdout, _, err := suite.execute("",
		"bench",
		"--variant", "deduplicate,trace",
		"--size", "500",
		"--steps", "2",
		"--runs", "1",
		"--density", "high")
	suite.Require().NoError(err)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	suite.Require().Len(lines, 5)
	suite.Require().Contains(lines[0], "RATIO")
	suite.Require().Contains(lines[1], "deduplicate")
	suite.Require().Contains(lines[2], "1000")
	suite.Require().Contains(lines[4], "trace")
}

func (suite *CommandTestSuite) TestBenchValidation() {
	for _, testCase := range []struct {
		name string
		args []string
	}{
		{name: "unknown variant", args: []string{"--variant", "quadratic"}},
		{name: "unknown density", args: []string{"--density", "medium"}},
		{name: "zero size", args: []string{"--size", "0"}},
		{name: "invalid min length", args: []string{"--min-length", "-1"}},
	} {
		suite.Run(testCase.name, func() {
			_, _, err := suite.execute("", append([]string{"bench"}, testCase.args...)...)
			suite.Require().Error(err)
		})
	}

	_, _, err := suite.execute("", "bench", "--min-length", "x")
	suite.Require().Equal(ErrInvalidMinLength, errors.RootCause(err))
}

func (suite *CommandTestSuite) TestGenerateText() {
	for _, density := range []densityType{densityLow, densityHigh} {
		text := generateText(rand.New(rand.NewSource(1)), 1000, density)
		suite.Require().Equal(1000, utf8.RuneCountInString(text))
	}
}
