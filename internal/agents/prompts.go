package agents

import "github.com/scan-io-git/codemedic/internal/llm"

// Slot names shared by the stage prompts.
const (
	slotCode         = "code"
	slotIssues       = "issues"
	slotOriginalCode = "original_code"
	slotFixedCode    = "fixed_code"
)

var detectPrompt = llm.MustPromptTemplate("detect", `You are a meticulous code reviewer. Find every problem in the code below.

Code to review:
{{.code}}

Look for all of the following:

Syntax and structure
1. Syntax errors: missing colons, brackets, quotes or parentheses
2. Indentation errors
3. Missing or wrong imports
4. Variables used before they are defined

Logic
5. Wrong conditions or operators
6. Loops that never terminate
7. Unreachable code
8. Incompatible types

Security
9. SQL injection
10. Command injection
11. Cross-site scripting
12. Hardcoded secrets such as API keys or passwords
13. Weak cryptography (MD5, SHA1, weak ciphers)
14. Path traversal

Performance
15. Leaked resources and memory
16. Needlessly slow algorithms
17. Redundant loops
18. Files or connections that are never closed

Best practices
19. Missing error handling
20. Unclear names
21. Duplicated code
22. Missing documentation
23. Deprecated functions

Report each problem with:
- line_number: the 1-based line of the problem
- issue_type: the category
- severity: exactly one of Critical, High, Medium, Low
- description: what is wrong
- code_snippet: the offending code
- suggestion: how to fix it

Rules:
- Go through the code line by line.
- Report everything you find.
- If the code has no problems, return an empty issues array.
- Answer with JSON only.

Answer format:
{
  "issues": [
    {
      "line_number": 5,
      "issue_type": "Syntax Error",
      "severity": "Critical",
      "description": "Function definition is missing its trailing colon",
      "code_snippet": "def login(username, password)",
      "suggestion": "Add the colon: def login(username, password):"
    }
  ],
  "total_found": 1,
  "critical_count": 1,
  "high_count": 0,
  "medium_count": 0,
  "low_count": 0,
  "summary": "Found 1 critical issue that stops the code from running"
}

When nothing is wrong:
{
  "issues": [],
  "total_found": 0,
  "critical_count": 0,
  "high_count": 0,
  "medium_count": 0,
  "low_count": 0,
  "summary": "Code is clean, no issues detected."
}
`, slotCode)

var fixPrompt = llm.MustPromptTemplate("fix", `You are an expert engineer who repairs code.

Original code:
{{.code}}

Problems found by the reviewer:
{{.issues}}

Your job:
1. Fix every listed problem.
2. Keep the original behaviour.
3. Improve overall quality and follow the conventions of the language.
4. Comment the changes you make.
5. Leave the code ready for production.

How to fix each kind of problem:
- Syntax errors: correct the syntax
- Logic errors: correct the conditions and flow
- Security issues: switch to safe alternatives
- Performance issues: use better algorithms and release resources
- Best practices: add error handling, documentation and clear names
- Add any imports the code needs and type hints where the language has them

Rules:
- Return the COMPLETE program, not a diff.
- The code must run without errors.
- Answer with JSON only.

Answer format:
{
  "fixed_code": "<the complete fixed program>",
  "fixes_applied": [
    {
      "issue": "Syntax Error on line 5",
      "fix_description": "Added the missing colon to the function definition",
      "before": "def login(username, password)",
      "after": "def login(username, password):"
    }
  ],
  "improvements_summary": "Fixed 1 critical issue and added error handling"
}
`, slotCode, slotIssues)

var verifyPrompt = llm.MustPromptTemplate("verify", `You are a strict code auditor. Judge whether a fix is correct.

Original code (with problems):
{{.original_code}}

Fixed code:
{{.fixed_code}}

Problems that were reported for the original:
{{.issues}}

Check:
1. Is every reported problem fixed?
2. Does the fixed code run without errors?
3. Is the logic correct?
4. Did the fix introduce new problems?
5. Does it follow best practices, with documentation and error handling?
6. Is performance reasonable and are resources managed?
7. Is it ready for production?

Score syntax, logic, security, performance and readability from 0 to 100 and give an overall score.

Scoring guide:
- 95-100: excellent
- 85-94: very good, minor improvements possible
- 75-84: good, some improvements needed
- 65-74: acceptable, several improvements needed
- below 65: significant problems remain

Set validation_status to "PASS" when overall_score is 70 or more, otherwise "FAIL".

Answer with JSON only, in this format:
{
  "validation_status": "PASS",
  "overall_score": 92,
  "syntax_score": 100,
  "logic_score": 95,
  "security_score": 90,
  "performance_score": 88,
  "readability_score": 90,
  "issues_fixed": 5,
  "remaining_issues": [],
  "new_issues": [],
  "recommendations": [
    "Add unit tests",
    "Add logging around external calls"
  ],
  "summary": "All reported problems are fixed and the code is production ready."
}
`, slotOriginalCode, slotFixedCode, slotIssues)
