package chat

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/N3E6X/The-Origami-Thought-Protocol/cmd/otp/config"
	"github.com/N3E6X/The-Origami-Thought-Protocol/internal/logging"
)

// Models lists the selectable model identifiers. The first entry is the
// default.
var Models = []string{
	"gemini-3-pro-preview",
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
}

// DefaultModel is used when model selection is skipped or invalid.
func DefaultModel() string { return Models[0] }

// SystemInstruction is the fixed kernel prompt sent with every request.
const SystemInstruction = "You are the KERNEL of the \"Origami Thought Protocol\", an advanced semantic compression engine.\n" +
	"GOAL: Achieve MAXIMUM ENTROPY REDUCTION (lowest token count) while maintaining 100% LOGICAL and Mathematical RECOVERABILITY.\n" +
	"\n" +
	"### CORE PROTOCOL (STRICT ENFORCEMENT):\n" +
	"1.  **NO HUMAN LANGUAGE**: The `compressed` output must contain ZERO English sentences, articles, or filler. Pure logic only.\n" +
	"2.  **SYMBOL REGISTRY (@Map)**:\n" +
	"    - Scan input for specific entities, keys, or types repeating >2 times.\n" +
	"    - Define them in a header: `@Map{U=User,S=Status,A=Active}`.\n" +
	"    - REPLACE ALL instances in the body.\n" +
	"\n" +
	"### STRUCTURAL STRATEGIES:\n" +
	"\n" +
	"#### 1. PURE TABULAR DATA (Uniform Arrays/CSVs)\n" +
	"*   **Strategy**: Schema-First Encoding.\n" +
	"*   **Syntax**: `#T(Col1,Col2,Col3){Val1|Val2|Val3;Val4|Val5|Val6}`\n" +
	"*   *Why*: Eliminates repeating keys for every row.\n" +
	"\n" +
	"#### 2. SEMI-UNIFORM ARRAYS (Objects with slight variations)\n" +
	"*   **Strategy**: Delta Encoding. Define the \"Base\" object, then list only changes.\n" +
	"*   **Syntax**: `@Base{A:1,B:2}; [Base|Base{B:3}|Base{A:0}]`\n" +
	"*   *Why*: Removes 90% of redundant key-value pairs.\n" +
	"\n" +
	"#### 3. DEEPLY NESTED STRUCTURES (JSON/Trees)\n" +
	"*   **Strategy**: Path Flattening.\n" +
	"*   **Syntax**: Instead of `{Config:{Network:{Port:80}}}`, use `Cfg.Net.Port:80`.\n" +
	"*   **Syntax**: `Root{Child1:V1|Child2:V2}` (Drop implied intermediate brackets).\n" +
	"\n" +
	"#### 4. LOGIC & CONDITIONALS\n" +
	"*   **Strategy**: Ternary Operators.\n" +
	"*   **Syntax**: `If Condition Then A Else B` -> `Cond?A:B`.\n" +
	"\n" +
	"### OUTPUT FORMAT:\n" +
	"Return a single string containing the compressed logic.\n" +
	"Example Input: \"The user 'John' has a status of 'Active' and role 'Admin'.\"\n" +
	"Example Output: `@Map{U=User,S=Status,A=Active,R=Role}; U(John){S:A|R:Admin}`"

// FatalSetupError reports an unrecoverable startup failure, such as a
// missing API key. The process should exit after printing it.
type FatalSetupError struct {
	Reason string
}

func (e *FatalSetupError) Error() string {
	return "setup failed: " + e.Reason
}

// apiKeyEnv is checked before the config file.
const apiKeyEnv = "GEMINI_API_KEY"

func printHeader(out io.Writer, title string) {
	fmt.Fprintf(out, "\n[ %s ]\n", title)
	fmt.Fprintln(out, strings.Repeat("-", 40))
}

// ResolveAPIKey finds the Gemini API key: environment first, then the
// saved config, then an interactive prompt. A key entered at the prompt
// is offered for saving back to the config file.
func ResolveAPIKey(readLine func() (string, error), out io.Writer, cfg *config.Config) (string, error) {
	if key := os.Getenv(apiKeyEnv); key != "" {
		fmt.Fprintln(out, "[OK] Using API key from environment variable")
		logging.Boot("API key resolved from environment")
		return key, nil
	}

	if cfg.APIKey != "" {
		fmt.Fprintln(out, "[OK] Using saved API key")
		logging.Boot("API key resolved from config file")
		return cfg.APIKey, nil
	}

	printHeader(out, "API KEY SETUP")
	fmt.Fprintln(out, "Get your free API key at:")
	fmt.Fprintln(out, "https://aistudio.google.com/app/apikey")
	fmt.Fprint(out, "\nEnter your Gemini API key: ")

	line, err := readLine()
	if err != nil {
		return "", &FatalSetupError{Reason: "no API key provided"}
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", &FatalSetupError{Reason: "API key is required"}
	}

	fmt.Fprint(out, "Save API key for future sessions? [Y/n]: ")
	choice, err := readLine()
	if err == nil && strings.ToLower(strings.TrimSpace(choice)) != "n" {
		cfg.APIKey = key
		if saveErr := config.Save(*cfg); saveErr != nil {
			fmt.Fprintf(out, "[WARNING] Could not save API key: %v\n", saveErr)
			logging.BootError("Saving API key failed: %v", saveErr)
		} else {
			fmt.Fprintln(out, "[OK] API key saved")
		}
	}

	return key, nil
}

// PromptModelSelection shows the numbered model menu and reads one
// choice. Empty or invalid input falls back to the default model.
func PromptModelSelection(readLine func() (string, error), out io.Writer) string {
	printHeader(out, "SELECT AI MODEL")

	for i, m := range Models {
		marker := ""
		if i == 0 {
			marker = " (default)"
		}
		fmt.Fprintf(out, "  %d. %s%s\n", i+1, m, marker)
	}
	fmt.Fprintf(out, "\nSelect model [1-%d]: ", len(Models))

	line, err := readLine()
	if err != nil {
		return DefaultModel()
	}
	choice := strings.TrimSpace(line)
	if choice == "" {
		return DefaultModel()
	}

	if idx, convErr := strconv.Atoi(choice); convErr == nil && idx >= 1 && idx <= len(Models) {
		return Models[idx-1]
	}

	fmt.Fprintln(out, "Using default model")
	return DefaultModel()
}
