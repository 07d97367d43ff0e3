package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexUnterminatedChar         Code = 1005
	LexBadDirective             Code = 1006
	LexMacroRedefined           Code = 1007
	LexTokenTooLong             Code = 1008

	// Syntax
	SynInfo               Code = 2000
	SynUnexpectedToken    Code = 2001
	SynExpectSemicolon    Code = 2002
	SynExpectIdentifier   Code = 2003
	SynExpectType         Code = 2004
	SynExpectExpression   Code = 2005
	SynExpectDeclarator   Code = 2006
	SynUnclosedParen      Code = 2007
	SynUnclosedBrace      Code = 2008
	SynUnclosedBracket    Code = 2009
	SynUnclosedAngle      Code = 2010
	SynExpectStatement    Code = 2011
	SynBadTemplateParam   Code = 2012
	SynBadBaseClause      Code = 2013
	SynUnexpectedTopLevel Code = 2014
	SynInMacroExpansion   Code = 2015

	// Semantic: one code per problem binding kind, then type problems
	SemaInfo                      Code = 3000
	SemaNameNotFound              Code = 3001
	SemaAmbiguousLookup           Code = 3002
	SemaInvalidRedeclaration      Code = 3003
	SemaInvalidRedefinition       Code = 3004
	SemaInvalidType               Code = 3005
	SemaBadScope                  Code = 3006
	SemaInvalidOverload           Code = 3007
	SemaMemberDeclarationNotFound Code = 3008
	SemaRecursionInLookup         Code = 3009
	SemaNarrowingConversion       Code = 3010
	SemaLabelNotFound             Code = 3011
	SemaCannotDeduceAuto          Code = 3020
	SemaCannotDeduceDecltypeAuto  Code = 3021
	SemaAutoForNonStaticField     Code = 3022
	SemaAutoForVirtualMethod      Code = 3023
	SemaInstantiationDepth        Code = 3030
	SemaEvalBudgetExhausted       Code = 3031
	SemaUnresolvedAmbiguity       Code = 3032

	// I/O
	IOLoadFileError Code = 4001
	IOCacheError    Code = 4002

	// Configuration
	CfgInfo         Code = 5000
	CfgInvalidValue Code = 5001

	// Observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                   "Unknown error",
	LexInfo:                       "Lexical information",
	LexUnknownChar:                "Unknown character",
	LexUnterminatedString:         "Unterminated string literal",
	LexUnterminatedBlockComment:   "Unterminated block comment",
	LexBadNumber:                  "Malformed number literal",
	LexUnterminatedChar:           "Unterminated character literal",
	LexBadDirective:               "Malformed preprocessor directive",
	LexMacroRedefined:             "Macro redefined",
	LexTokenTooLong:               "Token too long",
	SynInfo:                       "Syntax information",
	SynUnexpectedToken:            "Unexpected token",
	SynExpectSemicolon:            "Expected ';'",
	SynExpectIdentifier:           "Expected identifier",
	SynExpectType:                 "Expected type",
	SynExpectExpression:           "Expected expression",
	SynExpectDeclarator:           "Expected declarator",
	SynUnclosedParen:              "Unclosed parenthesis",
	SynUnclosedBrace:              "Unclosed brace",
	SynUnclosedBracket:            "Unclosed bracket",
	SynUnclosedAngle:              "Unclosed template argument list",
	SynExpectStatement:            "Expected statement",
	SynBadTemplateParam:           "Malformed template parameter",
	SynBadBaseClause:              "Malformed base clause",
	SynUnexpectedTopLevel:         "Unexpected token at namespace scope",
	SynInMacroExpansion:           "Syntax error inside macro expansion",
	SemaInfo:                      "Semantic information",
	SemaNameNotFound:              "Name not found",
	SemaAmbiguousLookup:           "Ambiguous lookup",
	SemaInvalidRedeclaration:      "Invalid redeclaration",
	SemaInvalidRedefinition:       "Invalid redefinition",
	SemaInvalidType:               "Invalid type",
	SemaBadScope:                  "Bad scope",
	SemaInvalidOverload:           "No viable overload",
	SemaMemberDeclarationNotFound: "Member declaration not found",
	SemaRecursionInLookup:         "Recursion in lookup",
	SemaNarrowingConversion:       "Narrowing conversion",
	SemaLabelNotFound:             "Label not found",
	SemaCannotDeduceAuto:          "Cannot deduce auto type",
	SemaCannotDeduceDecltypeAuto:  "Cannot deduce decltype(auto) type",
	SemaAutoForNonStaticField:     "auto used for non-static field",
	SemaAutoForVirtualMethod:      "auto used for virtual method",
	SemaInstantiationDepth:        "Template instantiation depth exceeded",
	SemaEvalBudgetExhausted:       "Constant evaluation step budget exhausted",
	SemaUnresolvedAmbiguity:       "No interpretation of ambiguous construct is valid",
	IOLoadFileError:               "Failed to load file",
	IOCacheError:                  "Result cache error",
	CfgInfo:                       "Configuration information",
	CfgInvalidValue:               "Invalid configuration value",
	ObsInfo:                       "Observability information",
	ObsTimings:                    "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
