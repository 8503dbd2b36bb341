package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Local variable values live in ~/.scout/vars.txt as name=value lines, one
// per variable. The whole file is rewritten on every change, sorted by name.
// Any declared variable can also be overridden through the environment as
// SCOUT_VAR_<NAME> with the name uppercased, which wins over the file.

const envVarPrefix = "SCOUT_VAR_"

// VarsFilePath returns the location of the local variable store
func VarsFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".scout", "vars.txt"), nil
}

// LoadVarsFromFile reads the variable store. A missing file is an empty store.
func LoadVarsFromFile() (map[string]string, error) {
	path, err := VarsFilePath()
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if name, value, ok := strings.Cut(line, "="); ok {
			vars[name] = value
		}
	}
	return vars, scanner.Err()
}

// SaveVarsToFile rewrites the store sorted by name. The write goes through a
// temp file in the same directory so a crash never leaves a half-written
// store behind.
func SaveVarsToFile(vars map[string]string) error {
	path, err := VarsFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	tmp, err := os.CreateTemp(filepath.Dir(path), "vars-*")
	if err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(tmp, "%s=%s\n", name, vars[name]); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func GetVar(name string) (string, error) {
	vars, err := LoadVarsFromFile()
	if err != nil {
		return "", err
	}
	value, ok := vars[name]
	if !ok {
		return "", fmt.Errorf("variable '%s' not found", name)
	}
	return value, nil
}

func SetVar(name, value string) error {
	vars, err := LoadVarsFromFile()
	if err != nil {
		return err
	}
	vars[name] = value
	return SaveVarsToFile(vars)
}

func DeleteVar(name string) error {
	vars, err := LoadVarsFromFile()
	if err != nil {
		return err
	}
	if _, ok := vars[name]; !ok {
		return fmt.Errorf("variable '%s' not found", name)
	}
	delete(vars, name)
	return SaveVarsToFile(vars)
}

// ResolveVariableValue returns the effective value for a declared variable.
// Resolution order: environment override, vars file, config default.
func ResolveVariableValue(v *Variable) (string, error) {
	if value, ok := os.LookupEnv(envVarPrefix + strings.ToUpper(v.Name)); ok {
		return value, nil
	}

	fileVars, err := LoadVarsFromFile()
	if err != nil {
		return "", err
	}
	if value, ok := fileVars[v.Name]; ok {
		return value, nil
	}
	return v.Default, nil
}
