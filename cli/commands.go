package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands. Flags override the
// config file and the environment.
type Globals struct {
	Config    string `help:"YAML config file (defaults to mininab.yaml when present)." type:"path" short:"c"`
	Ledger    string `help:"Ledger state file or database." short:"f"`
	Backend   string `help:"Storage backend: json or sqlite."`
	LogFile   string `help:"File receiving JSON log lines."`
	LogLevel  string `help:"Log level: trace, debug, info, warn or error."`
	Verbose   bool   `help:"Also log to stderr." short:"v"`
	Telemetry bool   `help:"Show timing telemetry for operations."`
}

type Commands struct {
	Globals

	Acc         AccCmd         `cmd:"" help:"Add an account (bank or credit)."`
	Cat         CatCmd         `cmd:"" help:"Add a colon-delimited category path, creating parents."`
	Tbb         TbbCmd         `cmd:"" help:"Set a month's ready-to-assign amount."`
	Bud         BudCmd         `cmd:"" help:"Budget money into a category. Use -- before negative amounts."`
	Spend       SpendCmd       `cmd:"" help:"Record spending from an account against a category."`
	Xfer        XferCmd        `cmd:"" help:"Transfer money between accounts."`
	RollForward RollForwardCmd `cmd:"" name:"roll-forward" help:"Carry positive balances into the next month and deduct overspending."`
	Rep         RepCmd         `cmd:"" help:"Show the budget report for a month."`
	Show        ShowCmd        `cmd:"" help:"Show accounts, categories and month summaries."`
	Txns        TxnsCmd        `cmd:"" help:"List transactions."`
	Check       CheckCmd       `cmd:"" help:"Validate the ledger state without changing it."`
	Doctor      DoctorCmd      `cmd:"" help:"Doctor utilities for debugging ledger state."`
	Web         WebCmd         `cmd:"" help:"Start a web server."`
}
