package ir

type (
	Oper uint8

	operKind uint8

	operInfo struct {
		name  string
		arity int8 // -1 for variadic
		kind  operKind
	}
)

const (
	OpNone Oper = iota

	OpCnsInt

	OpLclVar
	OpLclFld
	OpLclVarAddr
	OpLclFldAddr
	OpStoreLclVar
	OpStoreLclFld
	OpRegVar
	OpPhiArg

	OpClsVar
	OpClsVarAddr

	OpInd
	OpStoreInd
	OpBlk
	OpObj
	OpDynBlk
	OpStoreBlk
	OpStoreObj
	OpStoreDynBlk

	OpAsg
	OpAddr
	OpBox
	OpNop
	OpComma
	OpArgPlace
	OpList

	OpIntrinsic
	OpCall
	OpLea
	OpSIMD

	OpAdd
	OpSub
	OpMul
	OpNeg

	OpReturn
	OpILOffset

	OpQmark
	OpColon

	OpCount
)

const (
	kLeaf operKind = 1 << iota
	kLocal
	kLocalRead
	kLocalAddr
	kLocalStore
	kIndir
	kBlk
	kStore
)

var opers = [OpCount]operInfo{
	OpNone: {name: "none"},

	OpCnsInt: {name: "cns_int", kind: kLeaf},

	OpLclVar:      {name: "lcl_var", kind: kLeaf | kLocal | kLocalRead},
	OpLclFld:      {name: "lcl_fld", kind: kLeaf | kLocal | kLocalRead},
	OpLclVarAddr:  {name: "lcl_var_addr", kind: kLeaf | kLocal | kLocalAddr},
	OpLclFldAddr:  {name: "lcl_fld_addr", kind: kLeaf | kLocal | kLocalAddr},
	OpStoreLclVar: {name: "store_lcl_var", arity: 1, kind: kLocal | kLocalStore | kStore},
	OpStoreLclFld: {name: "store_lcl_fld", arity: 1, kind: kLocal | kLocalStore | kStore},
	OpRegVar:      {name: "reg_var", kind: kLeaf | kLocal | kLocalRead},
	OpPhiArg:      {name: "phi_arg", kind: kLeaf | kLocal | kLocalRead},

	OpClsVar:     {name: "cls_var", kind: kLeaf},
	OpClsVarAddr: {name: "cls_var_addr", kind: kLeaf},

	OpInd:         {name: "ind", arity: 1, kind: kIndir},
	OpStoreInd:    {name: "storeind", arity: 2, kind: kIndir | kStore},
	OpBlk:         {name: "blk", arity: 1, kind: kIndir | kBlk},
	OpObj:         {name: "obj", arity: 1, kind: kIndir | kBlk},
	OpDynBlk:      {name: "dyn_blk", arity: 3, kind: kIndir | kBlk},
	OpStoreBlk:    {name: "store_blk", arity: 2, kind: kIndir | kBlk | kStore},
	OpStoreObj:    {name: "store_obj", arity: 2, kind: kIndir | kBlk | kStore},
	OpStoreDynBlk: {name: "store_dyn_blk", arity: 3, kind: kIndir | kBlk | kStore},

	OpAsg:      {name: "asg", arity: 2},
	OpAddr:     {name: "addr", arity: 1},
	OpBox:      {name: "box", arity: 1},
	OpNop:      {name: "nop", arity: 1},
	OpComma:    {name: "comma", arity: 2},
	OpArgPlace: {name: "argplace", kind: kLeaf},
	OpList:     {name: "list", arity: 2},

	OpIntrinsic: {name: "intrinsic", arity: 2},
	OpCall:      {name: "call", arity: 2},
	OpLea:       {name: "lea", arity: 2},
	OpSIMD:      {name: "simd", arity: 2},

	OpAdd: {name: "add", arity: 2},
	OpSub: {name: "sub", arity: 2},
	OpMul: {name: "mul", arity: 2},
	OpNeg: {name: "neg", arity: 1},

	OpReturn:   {name: "return", arity: 1},
	OpILOffset: {name: "il_offset", kind: kLeaf},

	OpQmark: {name: "qmark", arity: 2},
	OpColon: {name: "colon", arity: 2},
}

func (op Oper) String() string {
	if op >= OpCount {
		return "oper?"
	}

	return opers[op].name
}

// Arity is the number of operand slots the operator uses.
// Optional operands (nop, return, intrinsic op2, simd op2) still count.
func (op Oper) Arity() int { return int(opers[op].arity) }

func (op Oper) IsLeaf() bool       { return opers[op].kind&kLeaf != 0 }
func (op Oper) IsLocal() bool      { return opers[op].kind&kLocal != 0 }
func (op Oper) IsLocalRead() bool  { return opers[op].kind&kLocalRead != 0 }
func (op Oper) IsLocalAddr() bool  { return opers[op].kind&kLocalAddr != 0 }
func (op Oper) IsLocalStore() bool { return opers[op].kind&kLocalStore != 0 }
func (op Oper) IsIndir() bool      { return opers[op].kind&kIndir != 0 }
func (op Oper) IsBlk() bool        { return opers[op].kind&kBlk != 0 }
func (op Oper) IsStore() bool      { return opers[op].kind&kStore != 0 }

func ParseOper(name string) (Oper, bool) {
	for op := OpNone + 1; op < OpCount; op++ {
		if opers[op].name == name {
			return op, true
		}
	}

	return OpNone, false
}

// StoreForm returns the store operator for a local read.
func StoreForm(op Oper) Oper {
	switch op {
	case OpLclVar:
		return OpStoreLclVar
	case OpLclFld:
		return OpStoreLclFld
	case OpRegVar:
		Fatalf("reg vars are only supported in the classic backend")
	}

	Fatalf("not a data load opcode: %v", op)
	panic("unreachable")
}

// AddrForm returns the address-taking operator for a local read.
func AddrForm(op Oper) Oper {
	switch op {
	case OpLclVar:
		return OpLclVarAddr
	case OpLclFld:
		return OpLclFldAddr
	}

	Fatalf("not a data load opcode: %v", op)
	panic("unreachable")
}

// LoadForm returns the read operator for a local address.
func LoadForm(op Oper) Oper {
	switch op {
	case OpLclVarAddr:
		return OpLclVar
	case OpLclFldAddr:
		return OpLclFld
	}

	Fatalf("not a local address opcode: %v", op)
	panic("unreachable")
}

// StoreBlkForm returns the store counterpart of a block operator.
func StoreBlkForm(op Oper) Oper {
	switch op {
	case OpBlk:
		return OpStoreBlk
	case OpObj:
		return OpStoreObj
	case OpDynBlk:
		return OpStoreDynBlk
	}

	Fatalf("not a block opcode: %v", op)
	panic("unreachable")
}
