package schema

// builtinFunctions is the SQLite built-in function catalog. Signatures use
// named type variables ("a") for parametric positions; the checker
// instantiates a fresh inference variable per invocation.
//
// Nullability in argument positions is declared nullable so that nullable
// inputs are always accepted; outputs are nullable unless the function is
// total (count, typeof, random).
var builtinFunctions = []FunctionSignature{
	// Aggregates
	{Name: "count", VariableArg: argPtr(Concrete(true, Any)), Output: Concrete(false, Integer), AllowWildcard: true, AllowDistinct: true},
	{Name: "sum", FixedArgs: []ArgType{Concrete(true, Number)}, Output: Concrete(true, Number), AllowDistinct: true},
	{Name: "total", FixedArgs: []ArgType{Concrete(true, Number)}, Output: Concrete(false, Float), AllowDistinct: true},
	{Name: "avg", FixedArgs: []ArgType{Concrete(true, Number)}, Output: Concrete(true, Float), AllowDistinct: true},
	{Name: "min", FixedArgs: []ArgType{Var("a")}, VariableArg: argPtr(Var("a")), Output: Var("a"), AllowDistinct: true},
	{Name: "max", FixedArgs: []ArgType{Var("a")}, VariableArg: argPtr(Var("a")), Output: Var("a"), AllowDistinct: true},
	{Name: "group_concat", FixedArgs: []ArgType{Concrete(true, Text)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, Text), AllowDistinct: true},

	// Conditionals
	{Name: "coalesce", FixedArgs: []ArgType{Var("a")}, VariableArg: argPtr(Var("a")), Output: Var("a")},
	{Name: "ifnull", FixedArgs: []ArgType{Var("a"), Var("a")}, Output: Var("a")},
	{Name: "nullif", FixedArgs: []ArgType{Var("a"), Var("a")}, Output: Var("a")},
	{Name: "iif", FixedArgs: []ArgType{Concrete(true, Boolean), Var("a"), Var("a")}, Output: Var("a")},

	// Numeric
	{Name: "abs", FixedArgs: []ArgType{Concrete(true, Number)}, Output: Concrete(true, Number)},
	{Name: "round", FixedArgs: []ArgType{Concrete(true, Number)}, VariableArg: argPtr(Concrete(true, Integer)), Output: Concrete(true, Float)},
	{Name: "random", Output: Concrete(false, Integer)},
	{Name: "sign", FixedArgs: []ArgType{Concrete(true, Number)}, Output: Concrete(true, Integer)},

	// Strings
	{Name: "length", FixedArgs: []ArgType{Concrete(true, Text)}, Output: Concrete(true, Integer)},
	{Name: "upper", FixedArgs: []ArgType{Concrete(true, Text)}, Output: Concrete(true, Text)},
	{Name: "lower", FixedArgs: []ArgType{Concrete(true, Text)}, Output: Concrete(true, Text)},
	{Name: "trim", FixedArgs: []ArgType{Concrete(true, Text)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, Text)},
	{Name: "ltrim", FixedArgs: []ArgType{Concrete(true, Text)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, Text)},
	{Name: "rtrim", FixedArgs: []ArgType{Concrete(true, Text)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, Text)},
	{Name: "substr", FixedArgs: []ArgType{Concrete(true, Text), Concrete(true, Integer)}, VariableArg: argPtr(Concrete(true, Integer)), Output: Concrete(true, Text)},
	{Name: "replace", FixedArgs: []ArgType{Concrete(true, Text), Concrete(true, Text), Concrete(true, Text)}, Output: Concrete(true, Text)},
	{Name: "instr", FixedArgs: []ArgType{Concrete(true, Text), Concrete(true, Text)}, Output: Concrete(true, Integer)},
	{Name: "hex", FixedArgs: []ArgType{Concrete(true, Any)}, Output: Concrete(true, Text)},
	{Name: "quote", FixedArgs: []ArgType{Concrete(true, Any)}, Output: Concrete(true, Text)},
	{Name: "char", VariableArg: argPtr(Concrete(true, Integer)), Output: Concrete(true, Text)},
	{Name: "unicode", FixedArgs: []ArgType{Concrete(true, Text)}, Output: Concrete(true, Integer)},
	{Name: "printf", FixedArgs: []ArgType{Concrete(true, Text)}, VariableArg: argPtr(Concrete(true, Any)), Output: Concrete(true, Text)},
	{Name: "format", FixedArgs: []ArgType{Concrete(true, Text)}, VariableArg: argPtr(Concrete(true, Any)), Output: Concrete(true, Text)},

	// Blobs
	{Name: "randomblob", FixedArgs: []ArgType{Concrete(true, Integer)}, Output: Concrete(true, Blob)},
	{Name: "zeroblob", FixedArgs: []ArgType{Concrete(true, Integer)}, Output: Concrete(true, Blob)},

	// Date and time
	{Name: "date", FixedArgs: []ArgType{Concrete(true, Any)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, DateTime)},
	{Name: "time", FixedArgs: []ArgType{Concrete(true, Any)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, DateTime)},
	{Name: "datetime", FixedArgs: []ArgType{Concrete(true, Any)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, DateTime)},
	{Name: "julianday", FixedArgs: []ArgType{Concrete(true, Any)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, Float)},
	{Name: "strftime", FixedArgs: []ArgType{Concrete(true, Text), Concrete(true, Any)}, VariableArg: argPtr(Concrete(true, Text)), Output: Concrete(true, Text)},

	// Metadata
	{Name: "typeof", FixedArgs: []ArgType{Concrete(true, Any)}, Output: Concrete(false, Text)},
	{Name: "last_insert_rowid", Output: Concrete(false, Integer)},
	{Name: "changes", Output: Concrete(false, Integer)},
	{Name: "likely", FixedArgs: []ArgType{Var("a")}, Output: Var("a")},
	{Name: "unlikely", FixedArgs: []ArgType{Var("a")}, Output: Var("a")},
}

func argPtr(a ArgType) *ArgType { return &a }
