package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeAnalyzeComments() string {
	return `Classifies every comment of a PHP codebase and finds declarations missing a required docblock, then scores the result.

USE WHEN:
- Reviewing documentation quality before a release or code review
- Finding functions whose array, iterable or generic return types need a docblock
- Finding functions that throw exceptions without documenting them
- Checking a change against the project's comment density thresholds

INTERPRETING RESULTS:
- Categories: docBlock (wanted), license (neutral), todo and fixme (debt), regular (noise), missingDocblock (gap)
- CDS (comment density score) ranges 0 to 1; higher is better documented
- Com/LoC is comment lines per line of code, including one line per missing docblock
- status red means a category or metric violated its configured threshold
- score.exceeded is true when any threshold failed; the CLI exits 1 in that case
- Findings are listed per file in source order with their line numbers

METRICS RETURNED:
- findings: category, color, file, line and text of every comment
- score: CDS, Com/LoC, per-category statistics with status
- files: per-file LOC, finding count and CDS
- distribution: mean, median, stddev and quartiles of the per-file CDS`
}

func describeListCategories() string {
	return `Lists the comment categories with their scoring weight, display color and threshold direction.

USE WHEN:
- Choosing thresholds for a configuration file
- Explaining why a finding lowers or raises the score

INTERPRETING RESULTS:
- Positive weights raise the CDS, negative weights lower it
- at_least categories pass when their count reaches the threshold
- at_most categories pass when their count stays at or below the threshold

METRICS RETURNED:
- category, weight, color and threshold direction of every category`
}
