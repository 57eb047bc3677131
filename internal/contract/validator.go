package contract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// 檔案位置 (相對於專案根目錄)
var (
	ContractFile = filepath.Join("contracts", "OWATCH.sol")
	TestFile     = filepath.Join("test", "OWATCH.t.sol")
	DeployScript = filepath.Join("scripts", "DeployOWATCH.s.sol")
)

// ErrContractNotFound contracts/OWATCH.sol is missing
var ErrContractNotFound = errors.New("contract file not found")

type rule struct {
	name    string
	pattern *regexp.Regexp
}

var structureRules = []rule{
	{"Contract declaration", regexp.MustCompile(`contract OWATCH`)},
	{"ERC20 inheritance", regexp.MustCompile(`ERC20\(`)},
	{"Ownable inheritance", regexp.MustCompile(`Ownable`)},
	{"registerUser function", regexp.MustCompile(`function registerUser`)},
	{"earnReward function", regexp.MustCompile(`function earnReward`)},
	{"getUserInfo function", regexp.MustCompile(`function getUserInfo`)},
	{"REWARD_PER_MINUTE constant", regexp.MustCompile(`REWARD_PER_MINUTE`)},
	{"MIN_WATCH_TIME constant", regexp.MustCompile(`MIN_WATCH_TIME`)},
}

var testNames = []string{"testInitialSupply", "testUserRegistration", "testEarnReward"}

// Check 單一檢查結果
type Check struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Passed   bool   `json:"passed"`
}

// Report 驗證報告
type Report struct {
	Root     string  `json:"root"`
	Checks   []Check `json:"checks"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Total    int     `json:"total"`
	Optional []Check `json:"optional"`
}

// OK no required check failed
func (r Report) OK() bool { return r.Failed == 0 }

// Validate 檢查 root 底下的合約結構. Only a missing contract file is an error;
// failed checks are reported in the Report.
func Validate(root string) (Report, error) {
	rep := Report{Root: root}

	data, err := os.ReadFile(filepath.Join(root, ContractFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rep, fmt.Errorf("%s: %w", filepath.Join(root, ContractFile), ErrContractNotFound)
		}
		return rep, fmt.Errorf("read contract: %w", err)
	}

	for _, r := range structureRules {
		ok := r.pattern.Match(data)
		rep.Checks = append(rep.Checks, Check{Name: r.name, Required: true, Passed: ok})
		if ok {
			rep.Passed++
		} else {
			rep.Failed++
		}
	}
	rep.Total = len(structureRules)

	testSrc, err := os.ReadFile(filepath.Join(root, TestFile))
	rep.Optional = append(rep.Optional, Check{Name: "Test file", Passed: err == nil})
	if err == nil {
		for _, name := range testNames {
			rep.Optional = append(rep.Optional, Check{
				Name:   "Test: " + name,
				Passed: strings.Contains(string(testSrc), name),
			})
		}
	}

	_, err = os.Stat(filepath.Join(root, DeployScript))
	rep.Optional = append(rep.Optional, Check{Name: "Deployment script", Passed: err == nil})

	return rep, nil
}

// Write 輸出人類可讀的報告
func (r Report) Write(w io.Writer) {
	fmt.Fprintln(w, "O'Watch.ID Smart Contract Validation")
	fmt.Fprintln(w, "=====================================")
	for _, c := range r.Checks {
		fmt.Fprintf(w, "[%s] %s\n", mark(c.Passed), c.Name)
	}
	fmt.Fprintf(w, "\nValidation Results:\n   Passed: %d\n   Failed: %d\n   Total:  %d\n", r.Passed, r.Failed, r.Total)
	if r.OK() {
		fmt.Fprintln(w, "\nContract structure validation PASSED")
	} else {
		fmt.Fprintln(w, "\nContract structure validation FAILED")
	}
	fmt.Fprintln(w)
	for _, c := range r.Optional {
		fmt.Fprintf(w, "[%s] %s\n", mark(c.Passed), c.Name)
	}
}

func mark(ok bool) string {
	if ok {
		return "ok"
	}
	return "missing"
}
