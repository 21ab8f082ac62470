package matcher

import (
	"sort"
	"strings"
)

// 技能同义词组。组内任意两个写法视为同一技能。
// 注意：java 与 javascript 不在同一组，子串相似不构成同义。
var synonymGroups = [][]string{
	{"javascript", "js", "ecmascript"},
	{"typescript", "ts"},
	{"golang", "go"},
	{"python", "py"},
	{"c#", "csharp", "c sharp"},
	{"c++", "cpp"},
	{"spring", "spring boot", "springboot", "spring framework"},
	{"node.js", "nodejs", "node"},
	{"react", "reactjs", "react.js"},
	{"vue", "vuejs", "vue.js"},
	{"angular", "angularjs"},
	{"kubernetes", "k8s"},
	{"postgresql", "postgres"},
	{"mongodb", "mongo"},
	{"elasticsearch", "es"},
	{"aws", "amazon web services"},
	{"gcp", "google cloud", "google cloud platform"},
	{"azure", "microsoft azure"},
	{"machine learning", "ml"},
	{"artificial intelligence", "ai"},
	{"continuous integration", "ci/cd", "cicd"},
	{"rest", "restful", "rest api"},
	{"sql server", "mssql", "microsoft sql server"},
	{"html", "html5"},
	{"css", "css3"},
}

// 技能层级表：父技能(领域) -> 子技能集合。
// 候选人掌握父技能时，对要求其子技能的岗位给予小幅加分。
var hierarchyChildren = map[string][]string{
	"java":       {"spring", "hibernate", "maven", "gradle", "junit"},
	"javascript": {"react", "vue", "angular", "node.js", "express", "jquery"},
	"python":     {"django", "flask", "fastapi", "pandas", "numpy"},
	"devops":     {"docker", "kubernetes", "jenkins", "terraform", "ansible"},
	"database":   {"mysql", "postgresql", "mongodb", "redis", "oracle"},
	"cloud":      {"aws", "azure", "gcp"},
	"frontend":   {"html", "css", "react", "vue", "angular"},
	"testing":    {"junit", "selenium", "cypress", "jest"},
}

// 匹配过程使用的只读查找结构，init中构建一次，运行期绝不修改
var (
	// synonymSets: 任意写法(小写) -> 其所属同义词组的完整集合
	synonymSets map[string]map[string]struct{}
	// canonicalNames: 任意写法(小写) -> 该组的规范代表（组内字典序最小者）
	canonicalNames map[string]string
	// childToParents: 子技能 -> 父技能集合
	childToParents map[string][]string
)

func init() {
	synonymSets = make(map[string]map[string]struct{}, len(synonymGroups)*3)
	canonicalNames = make(map[string]string, len(synonymGroups)*3)
	for _, group := range synonymGroups {
		set := make(map[string]struct{}, len(group))
		sorted := make([]string, 0, len(group))
		for _, term := range group {
			set[term] = struct{}{}
			sorted = append(sorted, term)
		}
		sort.Strings(sorted)
		canonical := sorted[0]
		for _, term := range group {
			synonymSets[term] = set
			canonicalNames[term] = canonical
		}
	}

	// 子技能键统一登记为规范代表，保证与Normalize的输出一致
	childToParents = make(map[string][]string, len(hierarchyChildren)*4)
	for parent, children := range hierarchyChildren {
		for _, child := range children {
			key := child
			if canonical, ok := canonicalNames[child]; ok {
				key = canonical
			}
			childToParents[key] = append(childToParents[key], parent)
		}
	}
	// 保证遍历顺序稳定
	for child := range childToParents {
		sort.Strings(childToParents[child])
	}
}

const (
	// hierarchyBonusPerHit 每命中一个父技能的加分
	hierarchyBonusPerHit = 0.1
	// hierarchyBonusCap 层级加分上限，防止领域广度盖过精确匹配
	hierarchyBonusCap = 0.3
)

// SkillMatcher 技能匹配器。内部仅引用只读查找表，可被任意并发调用。
type SkillMatcher struct{}

// NewSkillMatcher 创建技能匹配器实例
func NewSkillMatcher() *SkillMatcher {
	return &SkillMatcher{}
}

// Normalize 将技能名归一化为规范形式：小写并去除首尾空白；
// 若属于已知同义词组，返回该组固定的规范代表；未知技能原样返回。
func (m *SkillMatcher) Normalize(skill string) string {
	normalized := strings.ToLower(strings.TrimSpace(skill))
	if normalized == "" {
		return ""
	}
	if canonical, ok := canonicalNames[normalized]; ok {
		return canonical
	}
	return normalized
}

// Match 判断两个技能名是否指同一技能：归一化后相等，或二者的同义词组有交集。
// 两个互不相识的未知技能只有字符串完全相等才算匹配。
func (m *SkillMatcher) Match(a, b string) bool {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	setA, okA := synonymSets[na]
	setB, okB := synonymSets[nb]
	if !okA || !okB {
		return false
	}
	for term := range setA {
		if _, ok := setB[term]; ok {
			return true
		}
	}
	return false
}

// FindMatchingSkills 返回候选人已覆盖的必备技能（保留required中的原始写法）。
// 每个必备技能最多匹配一次，命中即短路。
func (m *SkillMatcher) FindMatchingSkills(required, candidateSkills []string) []string {
	matched := make([]string, 0, len(required))
	seen := make(map[string]struct{}, len(required))
	for _, req := range required {
		key := strings.ToLower(strings.TrimSpace(req))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		for _, cand := range candidateSkills {
			if m.Match(req, cand) {
				matched = append(matched, req)
				break
			}
		}
	}
	return matched
}

// FindMissingSkills 返回候选人未覆盖的必备技能（required去重后的集合差）
func (m *SkillMatcher) FindMissingSkills(required, candidateSkills []string) []string {
	matchedSet := make(map[string]struct{})
	for _, s := range m.FindMatchingSkills(required, candidateSkills) {
		matchedSet[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	missing := make([]string, 0, len(required))
	seen := make(map[string]struct{}, len(required))
	for _, req := range required {
		key := strings.ToLower(strings.TrimSpace(req))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := matchedSet[key]; !ok {
			missing = append(missing, req)
		}
	}
	return missing
}

// MatchScore 计算精确/同义匹配比例：|matched| / |required|。
// required为空时返回0.0。
func (m *SkillMatcher) MatchScore(required, candidateSkills []string) float64 {
	total := m.countDistinct(required)
	if total == 0 {
		return 0.0
	}
	matched := len(m.FindMatchingSkills(required, candidateSkills))
	score := float64(matched) / float64(total)
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// HierarchyBonus 计算层级加分：对每个登记为子技能的必备技能，
// 若候选人掌握对应的父技能则加0.1，总加分封顶0.3。
func (m *SkillMatcher) HierarchyBonus(required, candidateSkills []string) float64 {
	bonus := 0.0
	seen := make(map[string]struct{}, len(required))
	for _, req := range required {
		child := m.Normalize(req)
		if child == "" {
			continue
		}
		if _, dup := seen[child]; dup {
			continue
		}
		seen[child] = struct{}{}

		parents, ok := childToParents[child]
		if !ok {
			continue
		}
		for _, parent := range parents {
			if m.holdsSkill(parent, candidateSkills) {
				bonus += hierarchyBonusPerHit
				break
			}
		}
		if bonus >= hierarchyBonusCap {
			return hierarchyBonusCap
		}
	}
	return bonus
}

// EnhancedMatchScore 精确匹配分与层级加分之和，封顶1.0
func (m *SkillMatcher) EnhancedMatchScore(required, candidateSkills []string) float64 {
	score := m.MatchScore(required, candidateSkills) + m.HierarchyBonus(required, candidateSkills)
	if score > 1.0 {
		return 1.0
	}
	return score
}

// holdsSkill 判断候选人技能列表中是否存在与目标匹配的技能
func (m *SkillMatcher) holdsSkill(target string, candidateSkills []string) bool {
	for _, cand := range candidateSkills {
		if m.Match(target, cand) {
			return true
		}
	}
	return false
}

// countDistinct 统计去重且非空的技能数量（大小写不敏感）
func (m *SkillMatcher) countDistinct(skills []string) int {
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		seen[key] = struct{}{}
	}
	return len(seen)
}
