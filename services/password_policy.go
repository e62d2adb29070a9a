package services

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"project-camp/api/utils"
)

const minPasswordLength = 8

// PasswordPolicy rejects short passwords and anything on the blacklist.
type PasswordPolicy struct {
	blackList map[string]bool
}

func NewPasswordPolicy(blackList map[string]bool) *PasswordPolicy {
	if blackList == nil {
		blackList = map[string]bool{}
	}
	return &PasswordPolicy{blackList: blackList}
}

// LoadBlackList reads one password per line. An empty path yields an empty list.
func LoadBlackList(filePath string) (map[string]bool, error) {
	blackList := make(map[string]bool)
	if filePath == "" {
		return blackList, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening password blacklist: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			blackList[line] = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading password blacklist: %w", err)
	}
	return blackList, nil
}

func (p *PasswordPolicy) Validate(password string) error {
	if len(password) < minPasswordLength {
		return utils.BadRequest(fmt.Sprintf("Password should be at least %d characters", minPasswordLength))
	}
	if p.blackList[password] {
		return utils.BadRequest("Password is too common, please choose another one")
	}
	return nil
}
