package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads node configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key = value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a node config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// RPC
	case "rpc.enabled", "rpc":
		cfg.RPC.Enabled = parseBool(value)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.RPC.Port = port
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)

	// Engine
	case "engine.address":
		cfg.Engine.Address = value
	case "engine.name":
		cfg.Engine.Name = value
	case "engine.symbol":
		cfg.Engine.Symbol = value

	// Policy
	case "sale.gate_mint":
		cfg.Policy.GateMint = parseBool(value)
	case "royalty.require_issued":
		cfg.Policy.RoyaltyRequiresIssued = parseBool(value)
	case "mint.require_base_token":
		cfg.Policy.RequireBaseToken = parseBool(value)

	// Signer
	case "signer.mnemonic":
		cfg.Signer.Mnemonic = value
	case "signer.keystore":
		cfg.Signer.Keystore = value
	case "signer.account":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Signer.Account = uint32(n)

	case "deploy.outdir":
		cfg.Deploy.OutDir = value
	case "metrics.enabled", "metrics":
		cfg.Metrics.Enabled = parseBool(value)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a default node configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := DefaultFor(network)
	content := `# MetaverseNFT Node Configuration
#
# Policy defaults come from the network profile and only need to be set
# here to override it.

# Network: hardhat or rinkeby
network = ` + string(network) + `

# Data directory (default: ~/.metaverse-nft)
# datadir = ~/.metaverse-nft

# ============================================================================
# RPC Server
# ============================================================================

rpc.enabled = true
rpc.addr = 127.0.0.1
rpc.port = ` + strconv.Itoa(cfg.RPC.Port) + `
rpc.allowed = 127.0.0.1
# CORS allowed origins ("*" for all)
# rpc.cors = http://localhost:3000

# ============================================================================
# Collection
# ============================================================================

# Address of the collection to serve. Left empty on hardhat, a fresh
# collection is deployed on first start.
# engine.address = 0x...
engine.name = ` + cfg.Engine.Name + `
engine.symbol = ` + cfg.Engine.Symbol + `

# ============================================================================
# Policy
# ============================================================================

# sale.gate_mint = ` + strconv.FormatBool(cfg.Policy.GateMint) + `
# royalty.require_issued = ` + strconv.FormatBool(cfg.Policy.RoyaltyRequiresIssued) + `
# mint.require_base_token = ` + strconv.FormatBool(cfg.Policy.RequireBaseToken) + `

# ============================================================================
# Signer
# ============================================================================

# BIP-39 mnemonic of the operator account (hardhat uses the test mnemonic)
# signer.mnemonic =
# Keystore entry to unlock instead of a plain mnemonic
# signer.keystore =
# signer.account = 0

# ============================================================================
# Deployments / Metrics
# ============================================================================

# deploy.outdir = <datadir>/deployments
metrics.enabled = true

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
