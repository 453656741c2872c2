package editorial_service

import (
	"fmt"
	"strings"
)

const codeFence = "```"

func buildPrompt(statement string, title string, rating int32) string {
	var sb strings.Builder

	sb.WriteString("You are an expert competitive programming coach. ")
	sb.WriteString("Create a detailed editorial for the following Codeforces problem.\n\n")
	fmt.Fprintf(&sb, "Problem: %s (Rating: %d)\n\n", title, rating)
	sb.WriteString("Problem Statement:\n")
	sb.WriteString(statement)
	sb.WriteString("\n\nRequired Output Structure (in Markdown):\n\n")

	fmt.Fprintf(&sb, "# %s - Editorial\n\n", title)
	sb.WriteString("## 1. Problem Summary\n")
	sb.WriteString("Explain the problem in simple terms. Input/Output requirements.\n\n")
	sb.WriteString("## 2. Approach\n")
	sb.WriteString("High-level logic and strategy to solve it. Explain the thought process.\n\n")
	sb.WriteString("## 3. Algorithm\n")
	sb.WriteString("Provide a clear, step-by-step algorithm.\n1. Step 1...\n2. Step 2...\n...\n\n")
	sb.WriteString("## 4. Pseudo-code\n")
	sb.WriteString(codeFence + "text\n// Write clean, language-agnostic pseudo-code here\n" + codeFence + "\n\n")
	sb.WriteString("## 5. Complexity Analysis\n")
	sb.WriteString("- **Time Complexity**: Explain why.\n- **Space Complexity**: Explain why.\n\n")
	sb.WriteString("## 6. Key Insights / Tricks\n")
	sb.WriteString("Any corner cases or specific observations needed.\n\n")
	sb.WriteString("Do not use placeholders. Generate the actual content based on the problem statement provided.")

	return sb.String()
}

// Fallback is stored when no editorial could be generated.
func Fallback(link string) string {
	return fmt.Sprintf(`# Editorial Not Available

Unfortunately, we couldn't generate an AI editorial for this problem at this time.

## Resources

- [View Problem on Codeforces](%s)
- Try solving the problem and check the official Codeforces editorial
- Discuss with peers in the CodeClub community

## Tips

1. Read the problem carefully and identify the constraints
2. Think about edge cases
3. Start with a brute force approach, then optimize
4. Test your solution with sample inputs

Good luck!`, link)
}
