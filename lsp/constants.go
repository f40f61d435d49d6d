package lsp

// SemanticTokenType is the highlighting class of a query token
type SemanticTokenType string

const (
	SemanticKeyword   SemanticTokenType = "keyword"   // AND, OR, NOT, XOR, NEAR, ADJ, WITH, SAME
	SemanticOperator  SemanticTokenType = "operator"  // & | ( )
	SemanticNumber    SemanticTokenType = "number"    // numeric terms
	SemanticString    SemanticTokenType = "string"    // quoted phrases
	SemanticVariable  SemanticTokenType = "variable"  // word terms
	SemanticNamespace SemanticTokenType = "namespace" // field codes
	SemanticParameter SemanticTokenType = "parameter" // proximity and fuzzy distances
	SemanticComment   SemanticTokenType = "comment"   // text after #
)

// TokenTypes is the semantic token legend. Indices are what the LSP wire format carries.
var TokenTypes = []SemanticTokenType{
	SemanticKeyword,
	SemanticOperator,
	SemanticNumber,
	SemanticString,
	SemanticVariable,
	SemanticNamespace,
	SemanticParameter,
	SemanticComment,
}

// tokenTypeIndex maps a type to its legend index
func tokenTypeIndex(t SemanticTokenType) uint32 {
	for i, candidate := range TokenTypes {
		if candidate == t {
			return uint32(i)
		}
	}
	return uint32(len(TokenTypes) - 1)
}

const (
	// ServerName is reported to LSP clients
	ServerName = "patql Language Server"

	// maxDocumentsPerClient caps the per-connection document cache
	maxDocumentsPerClient = 100
)
