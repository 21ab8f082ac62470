package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalize 测试技能归一化
func TestNormalize(t *testing.T) {
	m := NewSkillMatcher()

	// 大小写与空白
	assert.Equal(t, "java", m.Normalize("  Java  "))

	// 同义词组内的任意写法归一化到同一个规范代表
	assert.Equal(t, m.Normalize("JS"), m.Normalize("JavaScript"))
	assert.Equal(t, m.Normalize("ecmascript"), m.Normalize("js"))
	assert.Equal(t, m.Normalize("K8s"), m.Normalize("Kubernetes"))

	// 未知技能原样（小写）返回
	assert.Equal(t, "cobol", m.Normalize("COBOL"))

	// 空输入
	assert.Equal(t, "", m.Normalize(""))
	assert.Equal(t, "", m.Normalize("   "))
}

// TestMatch 测试技能等价判断
func TestMatch(t *testing.T) {
	m := NewSkillMatcher()

	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"同义词匹配", "JavaScript", "js", true},
		{"同义词匹配(Spring)", "Spring", "Spring Boot", true},
		{"子串相似不构成同义", "Java", "JavaScript", false},
		{"精确匹配忽略大小写", "MySQL", "mysql", true},
		{"未知技能精确匹配", "Erlang", " erlang ", true},
		{"未知技能互不匹配", "Erlang", "Elixir", false},
		{"空输入不匹配", "", "java", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.a, tt.b))
		})
	}
}

// TestFindMatchingAndMissingSkills 验证 matched ∪ missing == required 且两者不相交
func TestFindMatchingAndMissingSkills(t *testing.T) {
	m := NewSkillMatcher()

	required := []string{"Java", "Spring", "Docker", "GraphQL"}
	candidate := []string{"java", "Spring Boot", "Kubernetes"}

	matched := m.FindMatchingSkills(required, candidate)
	missing := m.FindMissingSkills(required, candidate)

	assert.ElementsMatch(t, []string{"Java", "Spring"}, matched)
	assert.ElementsMatch(t, []string{"Docker", "GraphQL"}, missing)

	// 并集等于required、交集为空
	union := make(map[string]struct{})
	for _, s := range matched {
		union[s] = struct{}{}
	}
	for _, s := range missing {
		_, overlap := union[s]
		assert.False(t, overlap, "matched与missing不应重叠: %s", s)
		union[s] = struct{}{}
	}
	assert.Len(t, union, len(required))
}

// TestFindMatchingSkillsDeduplicates 重复的必备技能只计一次
func TestFindMatchingSkillsDeduplicates(t *testing.T) {
	m := NewSkillMatcher()

	required := []string{"Java", "java", " JAVA "}
	matched := m.FindMatchingSkills(required, []string{"Java"})
	assert.Len(t, matched, 1)

	missing := m.FindMissingSkills(required, nil)
	assert.Len(t, missing, 1)
}

// TestMatchScore 测试匹配比例计算
func TestMatchScore(t *testing.T) {
	m := NewSkillMatcher()

	// 空required返回0
	assert.Equal(t, 0.0, m.MatchScore(nil, []string{"java"}))
	assert.Equal(t, 0.0, m.MatchScore([]string{}, []string{"java"}))

	// 部分匹配
	score := m.MatchScore([]string{"Java", "Python", "Rust", "Go"}, []string{"java", "golang"})
	assert.InDelta(t, 0.5, score, 1e-9)

	// 全匹配
	assert.InDelta(t, 1.0, m.MatchScore([]string{"Java"}, []string{"java"}), 1e-9)

	// 分数始终在[0,1]
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)
}

// TestHierarchyBonus 测试父技能层级加分
func TestHierarchyBonus(t *testing.T) {
	m := NewSkillMatcher()

	// 要求Spring，候选人有Java（父技能）：+0.1
	bonus := m.HierarchyBonus([]string{"Spring"}, []string{"Java"})
	assert.InDelta(t, 0.1, bonus, 1e-9)

	// 候选人没有父技能：无加分
	assert.Equal(t, 0.0, m.HierarchyBonus([]string{"Spring"}, []string{"Python"}))

	// 多个子技能命中封顶0.3
	required := []string{"Spring", "Hibernate", "Maven", "Gradle", "JUnit"}
	bonus = m.HierarchyBonus(required, []string{"Java"})
	assert.InDelta(t, 0.3, bonus, 1e-9)
}

// TestEnhancedMatchScore 增强分不低于基础分且封顶1.0
func TestEnhancedMatchScore(t *testing.T) {
	m := NewSkillMatcher()

	required := []string{"Spring", "Hibernate", "Maven"}
	candidate := []string{"Java", "Spring Boot", "Hibernate", "Maven"}

	base := m.MatchScore(required, candidate)
	enhanced := m.EnhancedMatchScore(required, candidate)

	assert.GreaterOrEqual(t, enhanced, base)
	assert.LessOrEqual(t, enhanced, 1.0)
}
